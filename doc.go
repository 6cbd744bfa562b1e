// Package sched653 implements an ARINC 653 style time-partitioned
// scheduler for picking which VCPU runs on each PCPU of a hypervisor.
//
// Time is divided into a repeating major frame subdivided into fixed
// minor frames; each minor frame is statically assigned to a service
// whose providers (candidate VCPUs) are tried in order at election time.
// Determinism of the dispatch schedule, not throughput, is the quality
// attribute.
//
// # Basic Usage
//
// Create an instance against a host implementation of the collaborator
// interfaces in the host subpackage:
//
//	inst := sched653.New(sched653.Config{
//		Topology: topology,
//		Clock:    clock,
//		Softirqs: softirqs,
//		Running:  running,
//		Idle:     idle,
//	})
//
// Install a schedule (all mutation happens under the instance lock):
//
//	err := inst.InstallSchedule(now, sched653.ScheduleSpec{
//		MajorFrame: 30 * time.Millisecond,
//		Entries: []sched653.EntrySpec{
//			{ServiceID: 1, Runtime: 10 * time.Millisecond, Providers: []sched653.ProviderSpec{
//				{DomHandle: domA, VcpuID: 0},
//			}},
//		},
//	})
//
// Register VCPUs as the host creates them:
//
//	rec := inst.AllocVdata(sched653.V{Dom: domA, VcpuID: 0}, vcpuRef)
//	inst.InsertVcpu(rec)
//
// Each scheduling point, the host calls the dispatcher on a PCPU:
//
//	next, slice, migrated := inst.DoSchedule(pcpu, now, taskletPending)
//
// # Error Handling
//
// Recoverable control-plane errors (an invalid or infeasible schedule,
// an unknown domain) are returned as *ScheduleError; package wire
// reports encode/decode failures as plain errors. A broken real-time guarantee
// (a missed major frame, a nil elected VCPU after validation) is not
// recoverable: DoSchedule panics with a FatalInvariantViolation, and the
// host is expected to let that crash the process rather than catch it.
//
// # Resource Management
//
// Instance state (the schedule table, the VCPU registry, domain records)
// is owned by the Instance and protected by one mutex — a single coarse
// lock, not fine-grained locking. VCPU records are explicitly allocated
// and freed by the host via AllocVdata/FreeVdata.
package sched653
