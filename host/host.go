// Package host declares the external collaborators a scheduler instance
// depends on: the host hypervisor's notion of a VCPU, its monotonic
// clock, its CPU-mask subsystem, and its softirq mechanism. sched653 is
// written entirely against these interfaces; a real hypervisor
// implements them, and hostfake provides a deterministic fake for tests.
package host

import (
	"time"

	"golang.org/x/sys/unix"
)

// VCPURef is a back-pointer to a host-owned VCPU object. The scheduler
// never dereferences it beyond identity and the two queries below; it is
// non-owning — the host owns the VCPU.
type VCPURef interface {
	// Runnable reports whether the host considers this VCPU eligible to
	// run right now, distinct from the scheduler's own Awake flag, which
	// tracks sleep/wake independently.
	Runnable() bool

	// PCPU returns the processor this VCPU is currently assigned to by
	// the host. Used by DoSchedule's no-migration check and by PickCPU.
	PCPU() int
}

// PCPU identifies one physical CPU, 0-indexed.
type PCPU int

// Clock is the monotonic nanosecond clock the scheduler reads dispatch
// decisions against.
type Clock interface {
	Now() Instant
}

// Instant mirrors sched653.Instant without importing the root package
// (which imports host), avoiding an import cycle. sched653.Instant is
// defined as a distinct named type over the same underlying
// representation so the two convert with a plain type conversion.
type Instant int64

// Topology is the CPU-mask subsystem: it reports which PCPUs are online
// for a domain, used by PickCPU.
type Topology interface {
	// OnlineMask returns the CPU mask of PCPUs online for dom.
	OnlineMask(dom [16]byte) unix.CPUSet

	// FirstOnline returns the lowest-numbered online PCPU, used as the
	// PickCPU fallback when the VCPU's current PCPU is not in the mask.
	FirstOnline() PCPU
}

// SoftirqRaiser requests that the dispatcher be re-entered on a PCPU: a
// reschedule softirq raised on sleep-of-current and on every wake.
type SoftirqRaiser interface {
	RaiseReschedule(p PCPU)
}

// CurrentRunning is the host's per-PCPU "currently running VCPU" field,
// queried by Sleep to decide whether to raise a softirq.
type CurrentRunning interface {
	Running(p PCPU) VCPURef
}

// IdleProvider returns the per-PCPU idle VCPU sentinel that runs whenever
// no schedule entry has a runnable candidate.
type IdleProvider interface {
	Idle(p PCPU) VCPURef
}

// Now is a convenience for converting a time.Duration-based wall clock
// reading into an Instant, for hosts that derive their monotonic clock
// from time.Now().
func Now(d time.Duration) Instant { return Instant(d) }
