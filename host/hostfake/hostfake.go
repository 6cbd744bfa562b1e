// Package hostfake is a deterministic fake of the host collaborator
// interfaces in package host, used by sched653's own tests and available
// to embedders for their own scenario tests. ParseMask's CPU-list range
// syntax ("0-3,6") follows the same convention as Linux's own cpuset
// list format.
package hostfake

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/arinc653/sched653/host"
)

// VCPU is a fake host.VCPURef: a VCPU that is runnable unless explicitly
// marked otherwise, pinned to a fixed PCPU.
type VCPU struct {
	mu       sync.Mutex
	runnable bool
	pcpu     host.PCPU
}

// NewVCPU returns a runnable fake VCPU pinned to pcpu.
func NewVCPU(pcpu host.PCPU) *VCPU {
	return &VCPU{runnable: true, pcpu: pcpu}
}

func (v *VCPU) Runnable() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.runnable
}

func (v *VCPU) PCPU() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return int(v.pcpu)
}

// SetRunnable controls what Runnable reports, for exercising the
// candidate-must-be-runnable dispatch check.
func (v *VCPU) SetRunnable(runnable bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.runnable = runnable
}

// SetPCPU changes which PCPU this VCPU reports as its own, for
// exercising the no-migration override.
func (v *VCPU) SetPCPU(pcpu host.PCPU) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pcpu = pcpu
}

// Clock is a fake monotonic clock entirely under test control: no
// real-time reads, so tests are reproducible.
type Clock struct {
	mu  sync.Mutex
	now host.Instant
}

func NewClock(start host.Instant) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() host.Instant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the fake clock forward by d nanoseconds.
func (c *Clock) Advance(d int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += host.Instant(d)
}

// Topology is a fake CPU-mask subsystem: every domain sees the same
// fixed online mask.
type Topology struct {
	mask unix.CPUSet
}

// NewTopology builds a Topology whose online mask is the CPUs named by
// spec, using the same range syntax as aktau-perflock/internal/cpuset
// ("0-3,6").
func NewTopology(spec string) (*Topology, error) {
	mask, err := ParseMask(spec)
	if err != nil {
		return nil, err
	}
	return &Topology{mask: mask}, nil
}

func (t *Topology) OnlineMask(dom [16]byte) unix.CPUSet { return t.mask }

func (t *Topology) FirstOnline() host.PCPU {
	for i := 0; i < len(t.mask)*8; i++ {
		if t.mask.IsSet(i) {
			return host.PCPU(i)
		}
	}
	return 0
}

// ParseMask parses a Linux CPU-list string ("0-5,34,46-48") into a
// unix.CPUSet. Adapted from aktau-perflock/internal/cpuset.Parse, itself
// adapted from kubernetes' kubelet cpuset parser.
func ParseMask(s string) (unix.CPUSet, error) {
	var set unix.CPUSet
	if s == "" {
		return set, fmt.Errorf("hostfake: cannot parse empty CPU list")
	}
	for _, r := range strings.Split(s, ",") {
		bounds := strings.SplitN(r, "-", 2)
		if len(bounds) == 1 {
			n, err := strconv.Atoi(bounds[0])
			if err != nil {
				return set, fmt.Errorf("hostfake: invalid CPU %q: %w", bounds[0], err)
			}
			set.Set(n)
			continue
		}
		start, err := strconv.Atoi(bounds[0])
		if err != nil {
			return set, fmt.Errorf("hostfake: invalid range start %q: %w", bounds[0], err)
		}
		end, err := strconv.Atoi(bounds[1])
		if err != nil {
			return set, fmt.Errorf("hostfake: invalid range end %q: %w", bounds[1], err)
		}
		if start > end {
			return set, fmt.Errorf("hostfake: invalid range %q (%d > %d)", r, start, end)
		}
		for i := start; i <= end; i++ {
			set.Set(i)
		}
	}
	return set, nil
}

// Softirqs records every reschedule softirq raised, for assertions in
// tests.
type Softirqs struct {
	mu     sync.Mutex
	raised []host.PCPU
}

func NewSoftirqs() *Softirqs { return &Softirqs{} }

func (s *Softirqs) RaiseReschedule(p host.PCPU) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raised = append(s.raised, p)
}

// Raised returns a copy of every PCPU a reschedule softirq was raised
// for, in order.
func (s *Softirqs) Raised() []host.PCPU {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]host.PCPU, len(s.raised))
	copy(out, s.raised)
	return out
}

// Reset clears the recorded softirqs.
func (s *Softirqs) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raised = nil
}

// CurrentRunning is a fake per-PCPU "currently running VCPU" table.
type CurrentRunning struct {
	mu      sync.Mutex
	running map[host.PCPU]host.VCPURef
}

func NewCurrentRunning() *CurrentRunning {
	return &CurrentRunning{running: make(map[host.PCPU]host.VCPURef)}
}

func (c *CurrentRunning) Running(p host.PCPU) host.VCPURef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running[p]
}

// SetRunning records that vcpu is the VCPU currently running on p,
// mirroring what a real host would update on every context switch.
func (c *CurrentRunning) SetRunning(p host.PCPU, vcpu host.VCPURef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running[p] = vcpu
}

// IdleProvider is a fake per-PCPU idle VCPU table: one shared idle VCPU
// per PCPU, created lazily.
type IdleProvider struct {
	mu   sync.Mutex
	idle map[host.PCPU]*VCPU
}

func NewIdleProvider() *IdleProvider {
	return &IdleProvider{idle: make(map[host.PCPU]*VCPU)}
}

func (i *IdleProvider) Idle(p host.PCPU) host.VCPURef {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, ok := i.idle[p]
	if !ok {
		v = NewVCPU(p)
		i.idle[p] = v
	}
	return v
}
