package main

import (
	"os"

	"github.com/arinc653/sched653/cmd/arinc653ctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
