package sched653

import "github.com/arinc653/sched653/host"

// Sleep marks rec as asleep. If the host's per-PCPU
// "currently running" slot for p equals rec's host VCPU, a reschedule
// softirq is raised on p so the dispatcher is re-entered and picks the
// idle VCPU instead.
func (inst *Instance) Sleep(rec *R, p host.PCPU) {
	inst.mu.Lock()
	rec.Awake = false
	recordSleep()
	running := inst.cfg.Running.Running(p)
	inst.mu.Unlock()

	if running == rec.Host {
		inst.cfg.Softirqs.RaiseReschedule(p)
		recordSoftirq()
	}
}

// Wake marks rec as awake and unconditionally raises a reschedule
// softirq on p, the VCPU's currently assigned PCPU. The
// dispatcher itself decides whether waking actually affects the current
// slice; Wake does not pre-judge that.
func (inst *Instance) Wake(rec *R, p host.PCPU) {
	inst.mu.Lock()
	rec.Awake = true
	recordWake()
	inst.mu.Unlock()

	inst.cfg.Softirqs.RaiseReschedule(p)
	recordSoftirq()
}
