package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arinc653/sched653/wire"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [schedule.yml]",
	Short: "Check a YAML schedule document for shape and feasibility errors",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
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

	var totalRuntime int64
	for _, e := range spec.Entries {
		totalRuntime += int64(e.Runtime)
	}
	fmt.Printf("%s: OK (%d entries, %s major frame, %s scheduled, %s slack)\n",
		args[0], len(spec.Entries), spec.MajorFrame,
		totalRuntimeDuration(totalRuntime), spec.MajorFrame-totalRuntimeDuration(totalRuntime))
	return nil
}
