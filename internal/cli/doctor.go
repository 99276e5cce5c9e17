package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/loopdeck/loopdeck/internal/config"
	"github.com/loopdeck/loopdeck/internal/journal"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check state directory, store, lock, and journal health",
	Run:   runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) {
	printHeader("loopdeck doctor")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config:   ⚠ %v (using defaults)\n", err)
	} else {
		fmt.Println("Config:   ✓ Loaded")
	}

	stateDir, err := cfg.StateDir()
	if err != nil {
		fmt.Printf("State:    ✗ %v\n", err)
		os.Exit(1)
	}
	if _, err := os.Stat(stateDir); err == nil {
		fmt.Println("State:    ✓ " + stateDir)
	} else {
		fmt.Println("State:    ✗ Missing (" + stateDir + "); created on first write")
	}

	loopsPath, _ := cfg.LoopsPath()
	if data, err := os.ReadFile(loopsPath); err != nil {
		fmt.Println("Store:    – No document yet (" + loopsPath + ")")
	} else {
		var probe struct {
			Version int            `json:"version"`
			Loops   map[string]any `json:"loops"`
		}
		if json.Unmarshal(data, &probe) == nil && probe.Version == 1 {
			fmt.Printf("Store:    ✓ v%d, %d loop(s)\n", probe.Version, len(probe.Loops))
		} else {
			fmt.Println("Store:    ⚠ Unparseable or wrong version; will be treated as empty")
		}
	}

	lockPath := loopsPath + ".lock"
	if info, err := os.Stat(lockPath); err == nil {
		age := time.Since(info.ModTime()).Round(time.Second)
		if age > cfg.StaleLockAge() {
			fmt.Printf("Lock:     ⚠ Stale lock file (%s old); will be reclaimed\n", age)
		} else {
			fmt.Printf("Lock:     ⚠ Held (%s old)\n", age)
		}
	} else {
		fmt.Println("Lock:     ✓ Free")
	}

	if path, err := cfg.JournalPath(); err == nil && path != "" {
		if j, err := journal.Open(path); err == nil {
			j.Close()
			fmt.Println("Journal:  ✓ " + path)
		} else {
			fmt.Printf("Journal:  ✗ %v\n", err)
		}
	} else {
		fmt.Println("Journal:  – Disabled")
	}
}
