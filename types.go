package sched653

import (
	"time"

	"github.com/google/uuid"

	"github.com/arinc653/sched653/host"
)

const (
	// MaxEntries bounds the number of schedule entries (services) per
	// major frame. Compile-time constant; the wire format in package wire
	// must agree.
	MaxEntries = 64

	// MaxProviders bounds the number of candidate VCPUs per schedule
	// entry.
	MaxProviders = 8

	// DefaultTimeslice is the runtime given to a synthetic dom0 entry and
	// to the empty-schedule fallback.
	DefaultTimeslice = 10 * time.Millisecond

	// controlDomID is the id of the control domain (dom0 in the source
	// scheduler). VCPUs belonging to this domain may receive a synthetic
	// schedule entry on insertion; see Config.AutoDom0Entry.
	controlDomID = 0
)

// H is a domain handle: a 16-byte opaque identifier, compared bytewise.
// Backed by uuid.UUID, which is exactly a [16]byte, so == is bytewise
// equality and bytes.Compare over the slices gives lexicographic order.
type H = uuid.UUID

// ZeroHandle is the domain handle used by the synthetic dom0 schedule
// entry.
var ZeroHandle H

// ParseHandle parses a canonical UUID string into a domain handle, for
// callers (config files, CLI flags) that carry handles as text.
func ParseHandle(s string) (H, error) { return uuid.Parse(s) }

// V is a VCPU identifier: a domain handle plus an integer VCPU id. Two
// VCPUs with different (H, VcpuID) are distinct even if they resolve to
// the same host object transiently.
type V struct {
	Dom    H
	VcpuID int32
}

// DomID is a domain id as carried on the control plane (parent, self).
type DomID int32

// R is a VCPU record: the scheduler-owned, registry-resident state for
// one non-idle VCPU. Lifetime begins at AllocVdata and ends at
// FreeVdata; insertion into the registry happens at InsertVcpu, removal
// at RemoveVcpu.
type R struct {
	ID     V
	Host   host.VCPURef
	Awake  bool
	linked bool
}

// D is a domain record: parent domain id, primary flag, healthy flag.
// Created with the defaults below at AllocDomdata.
type D struct {
	Parent  DomID
	Primary bool
	Healthy bool
}

// newDomainRecord returns the defaults for a domain record created at
// init_domain: parent = self, primary = true, healthy = true.
func newDomainRecord(self DomID) D {
	return D{Parent: self, Primary: true, Healthy: true}
}

// P is a provider: a (domain-handle, vcpu-id) tuple identifying one
// candidate VCPU for a schedule entry, plus a cache of the V -> host VCPU
// lookup. Bound is valid only while the registry is stable and is
// refreshed after every insert/remove/install; it must never be read
// outside the instance lock.
type P struct {
	DomHandle H
	VcpuID    int32
	bound     *R
}

func (p P) vcpu() V { return V{Dom: p.DomHandle, VcpuID: p.VcpuID} }

// E is a schedule entry: one minor frame with a runtime and up to
// MaxProviders candidate VCPUs, ordered primary-first.
type E struct {
	ServiceID int32
	Runtime   time.Duration
	Providers []P
}

// Instant is a monotonic timestamp, nanoseconds since an arbitrary epoch
// fixed by host.Clock. Unlike time.Duration (a length of time), an
// Instant is a point in time; the two are never added together, only
// subtracted (to get a Duration) or offset by a Duration (to get another
// Instant).
type Instant time.Duration

// Add returns the instant offset by d.
func (i Instant) Add(d time.Duration) Instant { return Instant(time.Duration(i) + d) }

// Sub returns the duration elapsed from other to i.
func (i Instant) Sub(other Instant) time.Duration { return time.Duration(i - other) }

// Before reports whether i occurs strictly before other.
func (i Instant) Before(other Instant) bool { return i < other }

// FromHost converts a host.Instant (the host's monotonic clock reading)
// into an Instant. The two types share an underlying int64 nanosecond
// representation; this conversion exists so call sites don't need to
// know that.
func FromHost(hi host.Instant) Instant { return Instant(hi) }

// T is the schedule table: an ordered sequence of entries plus the major
// frame length and the next major-frame start time. Index i runs
// strictly before i+1.
type T struct {
	Entries        []E
	MajorFrame     time.Duration
	NextMajorFrame Instant
}

// ProviderSpec and EntrySpec and ScheduleSpec are the control-plane
// input shapes for InstallSchedule, mirroring the wire layout in package
// wire without committing callers to raw byte buffers.
type ProviderSpec struct {
	DomHandle H
	VcpuID    int32
}

type EntrySpec struct {
	ServiceID int32
	Runtime   time.Duration
	Providers []ProviderSpec
}

type ScheduleSpec struct {
	MajorFrame time.Duration
	Entries    []EntrySpec
}

// DomainParamsSpec is the input to SetDomainParams. Parent == -1 means
// "do not change".
type DomainParamsSpec struct {
	Parent  DomID
	Healthy bool
}

const NoParentChange DomID = -1

// DomainParams is the snapshot returned by GetDomainParams.
type DomainParams struct {
	Parent  DomID
	Healthy bool
}
