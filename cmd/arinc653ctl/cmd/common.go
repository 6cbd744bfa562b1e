package cmd

import (
	"time"

	"github.com/arinc653/sched653"
)

func validateSpec(spec sched653.ScheduleSpec) error {
	return sched653.ValidateSchedule(spec)
}

func totalRuntimeDuration(ns int64) time.Duration {
	return time.Duration(ns)
}
