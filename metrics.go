package sched653

import "sync/atomic"

// Performance metrics for monitoring scheduler operations: package-level
// atomic counters behind a snapshot struct, read without ever taking the
// instance lock.
var (
	installsAccepted       uint64
	installsRejected       uint64
	dispatches             uint64
	electionsHealthy       uint64
	electionsUnhealthySkip uint64
	electionsIdleNoCandid  uint64
	sleeps                 uint64
	wakes                  uint64
	softirqsRaised         uint64
	fatalNearMisses        uint64
)

// Metrics is a point-in-time snapshot of scheduler activity.
type Metrics struct {
	InstallsAccepted       uint64 `json:"installs_accepted"`
	InstallsRejected       uint64 `json:"installs_rejected"`
	Dispatches             uint64 `json:"dispatches"`
	ElectionsHealthy       uint64 `json:"elections_healthy"`
	ElectionsUnhealthySkip uint64 `json:"elections_unhealthy_skip"`
	ElectionsIdleNoCandid  uint64 `json:"elections_idle_no_candidate"`
	Sleeps                 uint64 `json:"sleeps"`
	Wakes                  uint64 `json:"wakes"`
	SoftirqsRaised         uint64 `json:"softirqs_raised"`
	FatalNearMisses        uint64 `json:"fatal_near_misses"`
}

// GetMetrics returns the current global scheduler metrics.
func GetMetrics() Metrics {
	return Metrics{
		InstallsAccepted:       atomic.LoadUint64(&installsAccepted),
		InstallsRejected:       atomic.LoadUint64(&installsRejected),
		Dispatches:             atomic.LoadUint64(&dispatches),
		ElectionsHealthy:       atomic.LoadUint64(&electionsHealthy),
		ElectionsUnhealthySkip: atomic.LoadUint64(&electionsUnhealthySkip),
		ElectionsIdleNoCandid:  atomic.LoadUint64(&electionsIdleNoCandid),
		Sleeps:                 atomic.LoadUint64(&sleeps),
		Wakes:                  atomic.LoadUint64(&wakes),
		SoftirqsRaised:         atomic.LoadUint64(&softirqsRaised),
		FatalNearMisses:        atomic.LoadUint64(&fatalNearMisses),
	}
}

// ResetMetrics clears all global scheduler metrics. Intended for test
// isolation between scenario runs.
func ResetMetrics() {
	atomic.StoreUint64(&installsAccepted, 0)
	atomic.StoreUint64(&installsRejected, 0)
	atomic.StoreUint64(&dispatches, 0)
	atomic.StoreUint64(&electionsHealthy, 0)
	atomic.StoreUint64(&electionsUnhealthySkip, 0)
	atomic.StoreUint64(&electionsIdleNoCandid, 0)
	atomic.StoreUint64(&sleeps, 0)
	atomic.StoreUint64(&wakes, 0)
	atomic.StoreUint64(&softirqsRaised, 0)
	atomic.StoreUint64(&fatalNearMisses, 0)
}

func recordInstallAccepted()      { atomic.AddUint64(&installsAccepted, 1) }
func recordInstallRejected()      { atomic.AddUint64(&installsRejected, 1) }
func recordDispatch()             { atomic.AddUint64(&dispatches, 1) }
func recordElectionHealthy()      { atomic.AddUint64(&electionsHealthy, 1) }
func recordElectionUnhealthy()    { atomic.AddUint64(&electionsUnhealthySkip, 1) }
func recordElectionIdleNoCandid() { atomic.AddUint64(&electionsIdleNoCandid, 1) }
func recordSleep()                { atomic.AddUint64(&sleeps, 1) }
func recordWake()                 { atomic.AddUint64(&wakes, 1) }
func recordSoftirq()              { atomic.AddUint64(&softirqsRaised, 1) }
func recordFatalNearMiss()        { atomic.AddUint64(&fatalNearMisses, 1) }
