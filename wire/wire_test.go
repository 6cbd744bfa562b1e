package wire

import (
	"testing"
	"time"

	"github.com/arinc653/sched653"
)

func sampleSpec() sched653.ScheduleSpec {
	var handleA, handleB [16]byte
	handleA[15] = 1
	handleB[15] = 2
	return sched653.ScheduleSpec{
		MajorFrame: 30 * time.Millisecond,
		Entries: []sched653.EntrySpec{
			{
				ServiceID: 1,
				Runtime:   10 * time.Millisecond,
				Providers: []sched653.ProviderSpec{
					{DomHandle: handleA, VcpuID: 0},
					{DomHandle: handleB, VcpuID: 1},
				},
			},
			{
				ServiceID: 2,
				Runtime:   20 * time.Millisecond,
				Providers: []sched653.ProviderSpec{{DomHandle: handleB, VcpuID: 0}},
			},
		},
	}
}

func TestInstallRequestRoundtrip(t *testing.T) {
	spec := sampleSpec()
	data, err := EncodeInstallRequest(spec)
	if err != nil {
		t.Fatalf("EncodeInstallRequest: %v", err)
	}

	got, err := DecodeInstallRequest(data)
	if err != nil {
		t.Fatalf("DecodeInstallRequest: %v", err)
	}
	if got.MajorFrame != spec.MajorFrame {
		t.Fatalf("MajorFrame = %s, want %s", got.MajorFrame, spec.MajorFrame)
	}
	if len(got.Entries) != len(spec.Entries) {
		t.Fatalf("len(Entries) = %d, want %d", len(got.Entries), len(spec.Entries))
	}
	for i, e := range got.Entries {
		want := spec.Entries[i]
		if e.ServiceID != want.ServiceID || e.Runtime != want.Runtime {
			t.Fatalf("entry %d = %+v, want %+v", i, e, want)
		}
		if len(e.Providers) != len(want.Providers) {
			t.Fatalf("entry %d providers = %d, want %d", i, len(e.Providers), len(want.Providers))
		}
		for j, p := range e.Providers {
			if p != want.Providers[j] {
				t.Fatalf("entry %d provider %d = %+v, want %+v", i, j, p, want.Providers[j])
			}
		}
	}
}

func TestEncodeInstallRequestRejectsTooManyEntries(t *testing.T) {
	spec := sched653.ScheduleSpec{Entries: make([]sched653.EntrySpec, MaxEntries+1)}
	if _, err := EncodeInstallRequest(spec); err == nil {
		t.Fatal("EncodeInstallRequest(MaxEntries+1) = nil, want an error")
	}
}

func TestEncodeInstallRequestRejectsTooManyProviders(t *testing.T) {
	spec := sched653.ScheduleSpec{Entries: []sched653.EntrySpec{
		{Providers: make([]sched653.ProviderSpec, MaxProviders+1)},
	}}
	if _, err := EncodeInstallRequest(spec); err == nil {
		t.Fatal("EncodeInstallRequest(MaxProviders+1) = nil, want an error")
	}
}

func TestDecodeInstallRequestRejectsTruncatedData(t *testing.T) {
	data, err := EncodeInstallRequest(sampleSpec())
	if err != nil {
		t.Fatalf("EncodeInstallRequest: %v", err)
	}
	if _, err := DecodeInstallRequest(data[:len(data)-1]); err == nil {
		t.Fatal("DecodeInstallRequest(truncated) = nil, want an error")
	}
}

func TestGetResponsePadsToMaxEntries(t *testing.T) {
	spec := sampleSpec() // 2 entries
	data, err := EncodeGetResponse(spec)
	if err != nil {
		t.Fatalf("EncodeGetResponse: %v", err)
	}

	install, err := EncodeInstallRequest(spec)
	if err != nil {
		t.Fatalf("EncodeInstallRequest: %v", err)
	}
	wantPadding := (MaxEntries - len(spec.Entries)) * entryStride(MaxProviders)
	if len(data) != len(install)+wantPadding {
		t.Fatalf("len(EncodeGetResponse) = %d, want %d (install %d + padding %d)", len(data), len(install)+wantPadding, len(install), wantPadding)
	}

	for i := len(install); i < len(data); i++ {
		if data[i] != unsetByte {
			t.Fatalf("byte %d = %#x, want padding byte %#x", i, data[i], unsetByte)
		}
	}

	// The real entries decode the same way whether read as a plain
	// install request or as the prefix of a padded get-response buffer.
	got, err := DecodeInstallRequest(data[:len(install)])
	if err != nil {
		t.Fatalf("DecodeInstallRequest(get-response prefix): %v", err)
	}
	if len(got.Entries) != len(spec.Entries) {
		t.Fatalf("decoded %d entries from the padded buffer's prefix, want %d", len(got.Entries), len(spec.Entries))
	}
}

func TestPutGetDomainInfoRoundtrip(t *testing.T) {
	var handle [16]byte
	handle[0] = 0xAB
	spec := sched653.DomainParamsSpec{Parent: 3, Healthy: true}

	data := EncodePutDomainInfo(handle, spec)
	gotHandle, gotSpec, err := DecodePutDomainInfo(data)
	if err != nil {
		t.Fatalf("DecodePutDomainInfo: %v", err)
	}
	if gotHandle != handle {
		t.Fatalf("handle = %x, want %x", gotHandle, handle)
	}
	if gotSpec != spec {
		t.Fatalf("spec = %+v, want %+v", gotSpec, spec)
	}
}

func TestGetDomainInfoResponseRoundtrip(t *testing.T) {
	var handle [16]byte
	handle[0] = 0xCD
	params := sched653.DomainParams{Parent: 9, Healthy: false}

	data := EncodeGetDomainInfoResponse(handle, params)
	gotHandle, gotParams, err := DecodeGetDomainInfoResponse(data)
	if err != nil {
		t.Fatalf("DecodeGetDomainInfoResponse: %v", err)
	}
	if gotHandle != handle {
		t.Fatalf("handle = %x, want %x", gotHandle, handle)
	}
	if gotParams != params {
		t.Fatalf("params = %+v, want %+v", gotParams, params)
	}
}

func TestDecodePutDomainInfoRejectsTruncatedData(t *testing.T) {
	var handle [16]byte
	data := EncodePutDomainInfo(handle, sched653.DomainParamsSpec{})
	if _, _, err := DecodePutDomainInfo(data[:len(data)-1]); err == nil {
		t.Fatal("DecodePutDomainInfo(truncated) = nil, want an error")
	}
}
