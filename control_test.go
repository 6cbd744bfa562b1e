package sched653

import (
	"errors"
	"testing"
	"time"
)

func validSpec() ScheduleSpec {
	return ScheduleSpec{
		MajorFrame: 30 * time.Millisecond,
		Entries: []EntrySpec{
			{ServiceID: 1, Runtime: 10 * time.Millisecond, Providers: []ProviderSpec{{VcpuID: 0}}},
			{ServiceID: 2, Runtime: 10 * time.Millisecond, Providers: []ProviderSpec{{VcpuID: 1}}},
		},
	}
}

func TestValidateScheduleAccepts(t *testing.T) {
	if err := ValidateSchedule(validSpec()); err != nil {
		t.Fatalf("ValidateSchedule(valid) = %v, want nil", err)
	}
}

func TestValidateScheduleRejects(t *testing.T) {
	tests := []struct {
		name string
		spec ScheduleSpec
		want error // nil means "any *ScheduleError", non-nil means this exact sentinel
	}{
		{
			name: "zero major frame",
			spec: ScheduleSpec{MajorFrame: 0, Entries: validSpec().Entries},
		},
		{
			name: "no entries",
			spec: ScheduleSpec{MajorFrame: time.Second, Entries: nil},
		},
		{
			name: "too many entries",
			spec: ScheduleSpec{MajorFrame: time.Hour, Entries: make([]EntrySpec, MaxEntries+1)},
		},
		{
			name: "entry with zero providers",
			spec: ScheduleSpec{MajorFrame: time.Second, Entries: []EntrySpec{
				{ServiceID: 1, Runtime: time.Millisecond, Providers: nil},
			}},
		},
		{
			name: "entry with too many providers",
			spec: ScheduleSpec{MajorFrame: time.Second, Entries: []EntrySpec{
				{ServiceID: 1, Runtime: time.Millisecond, Providers: make([]ProviderSpec, MaxProviders+1)},
			}},
		},
		{
			name: "non-positive runtime",
			spec: ScheduleSpec{MajorFrame: time.Second, Entries: []EntrySpec{
				{ServiceID: 1, Runtime: 0, Providers: []ProviderSpec{{VcpuID: 0}}},
			}},
		},
		{
			name: "runtimes exceed major frame",
			spec: ScheduleSpec{MajorFrame: 5 * time.Millisecond, Entries: []EntrySpec{
				{ServiceID: 1, Runtime: 10 * time.Millisecond, Providers: []ProviderSpec{{VcpuID: 0}}},
			}},
			want: ErrInfeasible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchedule(tt.spec)
			if err == nil {
				t.Fatal("ValidateSchedule() = nil, want an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("ValidateSchedule() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestInstallScheduleRejectionLeavesTableUntouched(t *testing.T) {
	h := newTestHarness(t, "0")
	if err := h.inst.InstallSchedule(0, validSpec()); err != nil {
		t.Fatalf("initial InstallSchedule: %v", err)
	}
	before := h.inst.ReadSchedule()

	bad := ScheduleSpec{MajorFrame: time.Millisecond, Entries: validSpec().Entries}
	if err := h.inst.InstallSchedule(100, bad); err == nil {
		t.Fatal("InstallSchedule(infeasible) = nil, want an error")
	}

	after := h.inst.ReadSchedule()
	if len(after.Entries) != len(before.Entries) || after.MajorFrame != before.MajorFrame {
		t.Fatalf("table changed after a rejected install: before=%+v after=%+v", before, after)
	}
}

func TestInstallScheduleSetsNextMajorFrameToNow(t *testing.T) {
	h := newTestHarness(t, "0")
	now := Instant(500)
	if err := h.inst.InstallSchedule(now, validSpec()); err != nil {
		t.Fatalf("InstallSchedule: %v", err)
	}
	if h.inst.table.NextMajorFrame != now {
		t.Fatalf("NextMajorFrame = %v, want %v", h.inst.table.NextMajorFrame, now)
	}
}

func TestSetGetDomainParamsRoundtrip(t *testing.T) {
	h := newTestHarness(t, "0")
	handle := newHandle(t)
	h.inst.AllocDomdata(7, handle)

	if err := h.inst.SetDomainParams(7, DomainParamsSpec{Parent: NoParentChange, Healthy: false}); err != nil {
		t.Fatalf("SetDomainParams: %v", err)
	}
	got, err := h.inst.GetDomainParams(7)
	if err != nil {
		t.Fatalf("GetDomainParams: %v", err)
	}
	if got.Healthy {
		t.Fatal("Healthy still true after SetDomainParams(Healthy: false)")
	}
	if got.Parent != 7 {
		t.Fatalf("Parent = %d, want unchanged 7", got.Parent)
	}
}

func TestSetDomainParamsChangesParentAndPrimary(t *testing.T) {
	h := newTestHarness(t, "0")
	h.inst.cfg.SelfDom = 3
	handle := newHandle(t)
	h.inst.AllocDomdata(7, handle)

	if err := h.inst.SetDomainParams(7, DomainParamsSpec{Parent: 3, Healthy: true}); err != nil {
		t.Fatalf("SetDomainParams: %v", err)
	}
	got, err := h.inst.GetDomainParams(7)
	if err != nil {
		t.Fatalf("GetDomainParams: %v", err)
	}
	if got.Parent != 3 {
		t.Fatalf("Parent = %d, want 3", got.Parent)
	}
	if !h.inst.domains[7].Primary {
		t.Fatal("Primary = false, want true after Parent == SelfDom")
	}
}

func TestGetSetDomainParamsUnknownDomain(t *testing.T) {
	h := newTestHarness(t, "0")
	if _, err := h.inst.GetDomainParams(42); !errors.Is(err, ErrUnknownDomain) {
		t.Fatalf("GetDomainParams(unknown) = %v, want ErrUnknownDomain", err)
	}
	if err := h.inst.SetDomainParams(42, DomainParamsSpec{}); !errors.Is(err, ErrUnknownDomain) {
		t.Fatalf("SetDomainParams(unknown) = %v, want ErrUnknownDomain", err)
	}
}
