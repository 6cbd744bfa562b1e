package sched653

import (
	"sync"

	"go.uber.org/zap"

	"github.com/arinc653/sched653/host"
)

// Config controls instance-wide behavior that needs to be explicit
// rather than baked in.
type Config struct {
	// AutoDom0Entry gates the dom0 auto-extension. It is off unless set
	// (the zero Config leaves it false); when true, inserting a control-domain (id 0) VCPU on an instance
	// with spare schedule capacity appends a synthetic DefaultTimeslice
	// entry and grows MajorFrame by the same amount. Kept for
	// compatibility with deployments that relied on it, gated behind this
	// option — an operator-supplied schedule should be installed before
	// any real workload boots.
	AutoDom0Entry bool

	// SelfDom is this scheduler's own domain id, used to compute
	// D.Primary = (D.Parent == SelfDom) in SetDomainParams.
	SelfDom DomID

	// Logger receives structured logs for control-plane operations and
	// PCPU takeover. DoSchedule never logs while holding the instance
	// lock; its only log line is a debug message for the tasklet
	// override, written after the lock is released. Nil is safe: logs are
	// skipped.
	Logger *zap.Logger

	// Topology, Clock, Softirqs, Running, Idle are the host collaborators
	// this instance depends on. All are required except Logger.
	Topology host.Topology
	Clock    host.Clock
	Softirqs host.SoftirqRaiser
	Running  host.CurrentRunning
	Idle     host.IdleProvider
}

// Instance is one scheduler instance: the schedule table, the VCPU
// registry, and the per-domain records, all protected by one mutex — a
// single coarse lock is sufficient and preferred over fine-grained
// locking here. The lock nests inside the host's cpupool-equivalent
// lock; callers must never hold a host lock while calling into Instance
// that could in turn call back into the host.
type Instance struct {
	mu sync.Mutex

	cfg     Config
	table   T
	domains map[DomID]*D

	// handles maps a domain's 128-bit handle to its integer domain id, so
	// election (which a provider addresses by H) and the control plane
	// (which addresses a domain by DomID) agree on the same D. A real
	// host's domain object carries both; AllocDomdata is given both.
	handles map[H]DomID

	// registry is the ordered sequence of scheduler-owned VCPU records.
	// Order does not encode priority; it exists only so iteration is
	// deterministic for tests.
	registry []*R

	// Dispatcher cursor state. These are per-instance fields, not
	// per-PCPU fields — they are a cursor into T, not a PCPU property.
	// Reset whenever a new major frame starts.
	schedIndex     int
	currentEntry   int // index into table.Entries, or -1 if none yet
	nextSwitchTime Instant

	// pcpus tracks which PCPUs this instance has taken over via
	// SwitchSched.
	pcpus map[host.PCPU]*pcpuState
}

// New allocates a scheduler instance: zeroes T, sets NextMajorFrame = 0,
// and creates an empty registry.
func New(cfg Config) *Instance {
	return &Instance{
		cfg:          cfg,
		domains:      make(map[DomID]*D),
		handles:      make(map[H]DomID),
		currentEntry: -1,
	}
}

func (inst *Instance) log() *zap.Logger {
	if inst.cfg.Logger == nil {
		return zap.NewNop()
	}
	return inst.cfg.Logger
}

// Deinit releases instance state. The host guarantees no VCPU or domain
// records remain.
func (inst *Instance) Deinit() {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if len(inst.registry) != 0 || len(inst.domains) != 0 {
		panicFatal("deinit called with %d VCPU record(s) and %d domain record(s) still live", len(inst.registry), len(inst.domains))
	}
	inst.table = T{}
}

// AllocVdata returns a new, unlinked VCPU record for vcpu. The record is
// not yet in the registry; call InsertVcpu to link it.
func (inst *Instance) AllocVdata(id V, ref host.VCPURef) *R {
	return &R{ID: id, Host: ref, Awake: false}
}

// FreeVdata drops a VCPU record that is not linked into the registry. It
// is a fatal invariant violation to free a record still linked —
// RemoveVcpu must be called first.
func (inst *Instance) FreeVdata(r *R) {
	if r.linked {
		panicFatal("FreeVdata called on a VCPU record still linked in the registry: %+v", r.ID)
	}
}

// InsertVcpu links rec into the registry under the lock. If rec belongs
// to the control domain (id 0) and
// Config.AutoDom0Entry is set, and the table has spare entry capacity, a
// synthetic schedule entry is appended with a DefaultTimeslice runtime,
// and MajorFrame grows by the same amount (this cannot violate
// feasibility: both the sum of runtimes and the frame grow together).
func (inst *Instance) InsertVcpu(rec *R) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if rec.linked {
		panicFatal("InsertVcpu called twice for %+v", rec.ID)
	}
	rec.linked = true
	inst.registry = append(inst.registry, rec)

	if inst.cfg.AutoDom0Entry && rec.ID.Dom == ZeroHandle && len(inst.table.Entries) < MaxEntries {
		inst.table.Entries = append(inst.table.Entries, E{
			ServiceID: controlDomID,
			Runtime:   DefaultTimeslice,
			Providers: []P{{DomHandle: ZeroHandle, VcpuID: rec.ID.VcpuID}},
		})
		inst.table.MajorFrame += DefaultTimeslice
		inst.log().Info("dom0 auto-entry installed",
			zap.Int32("vcpu_id", rec.ID.VcpuID),
			zap.Duration("major_frame", inst.table.MajorFrame),
		)
	}

	inst.refreshBindingsLocked()
}

// RemoveVcpu unlinks rec from the registry and refreshes every
// provider's binding cache; entries that used to resolve to rec may now
// have a nil binding.
func (inst *Instance) RemoveVcpu(rec *R) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	idx := -1
	for i, r := range inst.registry {
		if r == rec {
			idx = i
			break
		}
	}
	if idx < 0 {
		panicFatal("RemoveVcpu called on a record not in the registry: %+v", rec.ID)
	}
	inst.registry = append(inst.registry[:idx], inst.registry[idx+1:]...)
	rec.linked = false

	inst.refreshBindingsLocked()
}

// lookupLocked finds the live VCPU record matching id, or nil.
func (inst *Instance) lookupLocked(id V) *R {
	for _, r := range inst.registry {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// refreshBindingsLocked re-resolves every provider's bound cache from
// the current registry. Called after every insert, remove, and install:
// every P.bound either is nil or points to a VCPU record currently in
// the registry matching (P.DomHandle, P.VcpuID). Must be called with
// inst.mu held.
func (inst *Instance) refreshBindingsLocked() {
	for i := range inst.table.Entries {
		providers := inst.table.Entries[i].Providers
		for j := range providers {
			providers[j].bound = inst.lookupLocked(providers[j].vcpu())
		}
	}
}

// AllocDomdata constructs a domain record with the init_domain defaults
// (parent = self, primary = true, healthy = true) for dom. handle is the
// domain's 128-bit handle, used to resolve election-time lookups from a
// provider's DomHandle back to this record.
func (inst *Instance) AllocDomdata(dom DomID, handle H) *D {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	rec := newDomainRecord(dom)
	inst.domains[dom] = &rec
	inst.handles[handle] = dom
	return &rec
}

// FreeDomdata destroys the domain record for dom (destroy_domain).
func (inst *Instance) FreeDomdata(dom DomID, handle H) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	delete(inst.domains, dom)
	delete(inst.handles, handle)
}

// domainByHandleLocked resolves a provider's domain handle to its domain
// record, or nil if unknown. Must be called with inst.mu held.
func (inst *Instance) domainByHandleLocked(handle H) *D {
	dom, ok := inst.handles[handle]
	if !ok {
		return nil
	}
	return inst.domains[dom]
}
