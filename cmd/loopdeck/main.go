// Package main is the entry point for the loopdeck CLI.
package main

import (
	"os"

	"github.com/loopdeck/loopdeck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
