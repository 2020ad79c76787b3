package main

import (
	"os"

	"github.com/railops/railsched/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
