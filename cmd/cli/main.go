// Package main is the entry point for the takeoff CLI.
package main

import (
	"os"

	"siding-takeoff/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
