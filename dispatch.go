package sched653

import (
	"time"

	"go.uber.org/zap"

	"github.com/arinc653/sched653/host"
)

// DoSchedule is the hot path: given the current time and whether
// tasklet work is pending on pcpu, it returns the next VCPU to run, the
// time until the next decision, and whether a migration occurred
// (always false — this scheduler never moves VCPUs across PCPUs).
//
// Executes on one PCPU; acquires the instance lock for the duration of
// steps 1-6, then releases it before applying the tasklet/migration
// overrides of step 7. Side effects outside the lock are limited to
// softirqs and these overrides.
func (inst *Instance) DoSchedule(pcpu host.PCPU, now Instant, taskletPending bool) (next host.VCPURef, slice time.Duration, migrated bool) {
	inst.mu.Lock()

	var candidate *R
	usingIdle := false

	switch {
	case len(inst.table.Entries) == 0:
		// Step 1: empty schedule.
		inst.table.NextMajorFrame = now.Add(DefaultTimeslice)
		inst.nextSwitchTime = inst.table.NextMajorFrame
		usingIdle = true

	case !now.Before(inst.table.NextMajorFrame):
		// Step 2: new major frame.
		inst.schedIndex = 0
		inst.currentEntry = 0
		start := inst.table.NextMajorFrame
		inst.table.NextMajorFrame = inst.table.NextMajorFrame.Add(inst.table.MajorFrame)
		inst.nextSwitchTime = start.Add(inst.table.Entries[0].Runtime)
		candidate = inst.electProvider(&inst.table.Entries[0])

	default:
		// Step 3: advance within the major frame.
		for !now.Before(inst.nextSwitchTime) && inst.schedIndex < len(inst.table.Entries)-1 {
			inst.schedIndex++
			inst.currentEntry = inst.schedIndex
			inst.nextSwitchTime = inst.nextSwitchTime.Add(inst.table.Entries[inst.schedIndex].Runtime)
		}

		// Step 4: exhaustion — trailing gap runs idle.
		if !now.Before(inst.nextSwitchTime) {
			inst.nextSwitchTime = inst.table.NextMajorFrame
			usingIdle = true
		} else {
			candidate = inst.electProvider(&inst.table.Entries[inst.currentEntry])
		}
	}

	if !usingIdle {
		// Step 5: candidate validation.
		if candidate == nil || !candidate.linked || !candidate.Awake || candidate.Host == nil || !candidate.Host.Runnable() {
			usingIdle = true
		}
	}

	// The slice is the time to the next decision point regardless of which
	// VCPU fills it — idle-by-exhaustion, idle-by-invalid-candidate, and a
	// live candidate all run until next_switch_time.
	slice = inst.nextSwitchTime.Sub(now)

	// Step 6: assertions. A missed major frame or a non-positive slice is
	// a broken real-time guarantee; bug-trap here rather than returning a
	// degraded answer.
	if !now.Before(inst.table.NextMajorFrame) {
		recordFatalNearMiss()
		inst.mu.Unlock()
		panicFatal("now (%d) >= next_major_frame (%d) after frame update on pcpu %d", now, inst.table.NextMajorFrame, pcpu)
	}
	if slice <= 0 {
		recordFatalNearMiss()
		inst.mu.Unlock()
		panicFatal("computed non-positive slice %s on pcpu %d", slice, pcpu)
	}

	logger := inst.log()
	inst.mu.Unlock()

	recordDispatch()

	if usingIdle {
		idle := inst.cfg.Idle.Idle(pcpu)
		if idle == nil {
			recordFatalNearMiss()
			panicFatal("host returned a nil idle VCPU for pcpu %d", pcpu)
		}
		return idle, pickSlice(slice), false
	}

	// Step 7: overrides, applied after the lock is released.
	if taskletPending {
		logger.Debug("tasklet pending, overriding election with idle", zap.Int("pcpu", int(pcpu)))
		return inst.cfg.Idle.Idle(pcpu), slice, false
	}
	if candidate.Host.PCPU() != int(pcpu) {
		// No cross-PCPU migration from this scheduler; a candidate bound to
		// a different PCPU runs idle here instead.
		return inst.cfg.Idle.Idle(pcpu), slice, false
	}

	return candidate.Host, slice, false
}

// pickSlice guards against a zero or negative slice leaking out: every
// dispatcher return must carry a strictly positive time-to-next-decision.
func pickSlice(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeslice
	}
	return d
}
