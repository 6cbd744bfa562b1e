package sched653

import (
	"go.uber.org/zap"

	"github.com/arinc653/sched653/host"
)

// PickCPU returns vcpu's current PCPU if it is in the domain's online CPU
// mask; otherwise it returns the first online PCPU. No rebalancing, no
// affinity learning.
func (inst *Instance) PickCPU(domHandle H, rec *R) host.PCPU {
	current := host.PCPU(rec.Host.PCPU())
	mask := inst.cfg.Topology.OnlineMask(domHandle)
	if mask.IsSet(int(current)) {
		return current
	}
	return inst.cfg.Topology.FirstOnline()
}

// pcpuState records, for a PCPU this instance has taken over via
// SwitchSched, whether it is active and what idle VCPU record backs it.
type pcpuState struct {
	active bool
	idle   *R
}

// SwitchSched takes over pcpu for this instance: it installs idleVdata
// as the idle VCPU's record for pcpu and marks this instance active
// there. A real host additionally redirects
// the per-PCPU schedule lock to a per-PCPU default location so that,
// once a PCPU is owned by this instance, the instance's own lock — not a
// shared runqueue lock — is what serializes DoSchedule on it; that
// redirection is the host's responsibility and has no state of its own
// on this side of the interface.
func (inst *Instance) SwitchSched(pcpu host.PCPU, idleVdata *R) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.pcpus == nil {
		inst.pcpus = make(map[host.PCPU]*pcpuState)
	}
	inst.pcpus[pcpu] = &pcpuState{active: true, idle: idleVdata}

	inst.log().Info("pcpu taken over by scheduler instance",
		zap.Int("pcpu", int(pcpu)),
		zap.Int32("idle_vcpu_id", idleVdata.ID.VcpuID),
	)
}

// Active reports whether this instance currently owns pcpu.
func (inst *Instance) Active(pcpu host.PCPU) bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	st, ok := inst.pcpus[pcpu]
	return ok && st.active
}
