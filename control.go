package sched653

import (
	"go.uber.org/zap"
)

// InstallSchedule validates and, on success, overwrites the schedule
// table. Validation happens entirely before any mutation:
//
//   - major_frame > 0
//   - 1 <= len(entries) <= MaxEntries
//   - every entry: 1 <= len(providers) <= MaxProviders, runtime > 0
//   - sum(runtime) <= major_frame
//
// Any violation rejects the whole request and leaves the previously
// installed table byte-identical. On success, NextMajorFrame is set to
// now so the new schedule
// takes effect on the very next dispatch without waiting for the current
// major frame to expire.
func (inst *Instance) InstallSchedule(now Instant, spec ScheduleSpec) error {
	if err := validateSchedule(spec); err != nil {
		inst.mu.Lock()
		inst.log().Warn("schedule install rejected", zap.Error(err))
		inst.mu.Unlock()
		recordInstallRejected()
		return err
	}

	entries := make([]E, len(spec.Entries))
	for i, es := range spec.Entries {
		providers := make([]P, len(es.Providers))
		for j, ps := range es.Providers {
			providers[j] = P{DomHandle: ps.DomHandle, VcpuID: ps.VcpuID}
		}
		entries[i] = E{ServiceID: es.ServiceID, Runtime: es.Runtime, Providers: providers}
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	inst.table = T{Entries: entries, MajorFrame: spec.MajorFrame, NextMajorFrame: now}
	inst.refreshBindingsLocked()
	inst.schedIndex = 0
	inst.currentEntry = -1

	inst.log().Info("schedule installed",
		zap.Int("entries", len(entries)),
		zap.Duration("major_frame", spec.MajorFrame),
	)
	recordInstallAccepted()
	return nil
}

// ValidateSchedule checks spec against the same shape and feasibility
// rules InstallSchedule enforces, without installing it or requiring a
// live Instance. Useful for config-time linting.
func ValidateSchedule(spec ScheduleSpec) error {
	return validateSchedule(spec)
}

func validateSchedule(spec ScheduleSpec) error {
	if spec.MajorFrame <= 0 {
		return invalidArgument("major_frame must be > 0, got %s", spec.MajorFrame)
	}
	if len(spec.Entries) < 1 || len(spec.Entries) > MaxEntries {
		return invalidArgument("num_entries must be in [1, %d], got %d", MaxEntries, len(spec.Entries))
	}

	var sum int64
	for i, e := range spec.Entries {
		if len(e.Providers) < 1 || len(e.Providers) > MaxProviders {
			return invalidArgument("entry %d: num_providers must be in [1, %d], got %d", i, MaxProviders, len(e.Providers))
		}
		if e.Runtime <= 0 {
			return invalidArgument("entry %d: runtime must be > 0, got %s", i, e.Runtime)
		}
		sum += int64(e.Runtime)
	}
	if sum > int64(spec.MajorFrame) {
		return ErrInfeasible
	}
	return nil
}

// ReadSchedule snapshots the current schedule table under the lock.
func (inst *Instance) ReadSchedule() ScheduleSpec {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	out := ScheduleSpec{MajorFrame: inst.table.MajorFrame}
	out.Entries = make([]EntrySpec, len(inst.table.Entries))
	for i, e := range inst.table.Entries {
		es := EntrySpec{ServiceID: e.ServiceID, Runtime: e.Runtime}
		es.Providers = make([]ProviderSpec, len(e.Providers))
		for j, p := range e.Providers {
			es.Providers[j] = ProviderSpec{DomHandle: p.DomHandle, VcpuID: p.VcpuID}
		}
		out.Entries[i] = es
	}
	return out
}

// SetDomainParams updates dom's domain record. If
// spec.Parent != NoParentChange, D.Parent is set and D.Primary is
// derived as (D.Parent == this instance's own domain id). Healthy is
// always updated from the input.
func (inst *Instance) SetDomainParams(dom DomID, spec DomainParamsSpec) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	rec, ok := inst.domains[dom]
	if !ok {
		return ErrUnknownDomain
	}

	if spec.Parent != NoParentChange {
		rec.Parent = spec.Parent
		rec.Primary = rec.Parent == inst.cfg.SelfDom
	}
	rec.Healthy = spec.Healthy

	inst.log().Info("domain params updated",
		zap.Int32("dom", int32(dom)),
		zap.Bool("healthy", rec.Healthy),
		zap.Bool("primary", rec.Primary),
	)
	return nil
}

// GetDomainParams snapshots dom's (parent, healthy) under the lock.
func (inst *Instance) GetDomainParams(dom DomID) (DomainParams, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	rec, ok := inst.domains[dom]
	if !ok {
		return DomainParams{}, ErrUnknownDomain
	}
	return DomainParams{Parent: rec.Parent, Healthy: rec.Healthy}, nil
}
