package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arinc653/sched653"
	"github.com/arinc653/sched653/host"
	"github.com/arinc653/sched653/host/hostfake"
	"github.com/arinc653/sched653/wire"
)

var (
	simPCPU   int
	simFrames int
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntVar(&simPCPU, "pcpu", 0, "PCPU to drive the dispatcher on")
	simulateCmd.Flags().IntVar(&simFrames, "frames", 2, "number of major frames to simulate")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate [schedule.yml]",
	Short: "Replay a YAML schedule against an in-process instance and print the dispatch trace",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	spec, err := wire.ParseScheduleDocument(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	if err := validateSpec(spec); err != nil {
		return fmt.Errorf("%s is infeasible: %w", args[0], err)
	}

	pcpu := host.PCPU(simPCPU)
	clock := hostfake.NewClock(0)
	topology, err := hostfake.NewTopology(fmt.Sprintf("%d", simPCPU))
	if err != nil {
		return fmt.Errorf("build topology: %w", err)
	}
	softirqs := hostfake.NewSoftirqs()
	running := hostfake.NewCurrentRunning()
	idle := hostfake.NewIdleProvider()

	inst := sched653.New(sched653.Config{
		Topology: topology,
		Clock:    clock,
		Softirqs: softirqs,
		Running:  running,
		Idle:     idle,
	})

	seenDomains := map[sched653.H]bool{}
	labels := map[host.VCPURef]string{}
	for _, e := range spec.Entries {
		for _, p := range e.Providers {
			if !seenDomains[p.DomHandle] {
				inst.AllocDomdata(domIDFromHandle(p.DomHandle), p.DomHandle)
				seenDomains[p.DomHandle] = true
			}
			vcpu := hostfake.NewVCPU(pcpu)
			rec := inst.AllocVdata(sched653.V{Dom: p.DomHandle, VcpuID: p.VcpuID}, vcpu)
			inst.InsertVcpu(rec)
			inst.Wake(rec, pcpu)
			running.SetRunning(pcpu, vcpu)
			labels[vcpu] = fmt.Sprintf("dom=%s vcpu=%d", p.DomHandle, p.VcpuID)
		}
	}

	labelOf := func(ref host.VCPURef) string {
		if label, ok := labels[ref]; ok {
			return label
		}
		return "idle"
	}

	now := sched653.FromHost(clock.Now())
	if err := inst.InstallSchedule(now, spec); err != nil {
		return fmt.Errorf("install schedule: %w", err)
	}

	var elapsed time.Duration
	budget := time.Duration(simFrames) * spec.MajorFrame
	for elapsed < budget {
		now = sched653.FromHost(clock.Now())
		next, slice, _ := inst.DoSchedule(pcpu, now, false)
		fmt.Printf("t=%-12s pcpu=%d slice=%-10s -> %s\n", elapsed, pcpu, slice, labelOf(next))
		clock.Advance(int64(slice))
		elapsed += slice
	}

	fmt.Printf("softirqs raised: %d\n", len(softirqs.Raised()))
	return nil
}

// domIDFromHandle derives a small, readable domain id from a domain
// handle's low bytes, purely for simulate's own bookkeeping: a real
// control plane assigns domain ids independently of the handle.
func domIDFromHandle(h sched653.H) sched653.DomID {
	return sched653.DomID(int32(h[14])<<8 | int32(h[15]))
}
