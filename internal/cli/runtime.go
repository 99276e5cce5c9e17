package cli

import (
	"fmt"
	"log/slog"

	"github.com/loopdeck/loopdeck/internal/config"
	"github.com/loopdeck/loopdeck/internal/journal"
	"github.com/loopdeck/loopdeck/internal/research"
	"github.com/loopdeck/loopdeck/internal/store"
)

// buildRegistry wires a registry for the given session key using the loaded
// config. The CLI is a peer caller of the same store the agent tool uses.
func buildRegistry(sessionKey string) (*research.Registry, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config warning: %v (using defaults)\n", err)
	}
	loopsPath, err := cfg.LoopsPath()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve state dir: %w", err)
	}
	st := store.New(loopsPath, store.Options{
		LockTimeout:  cfg.LockTimeout(),
		PollInterval: cfg.LockPoll(),
		StaleAfter:   cfg.StaleLockAge(),
	})

	var jnl research.Journal
	if path, err := cfg.JournalPath(); err == nil && path != "" {
		if j, err := journal.Open(path); err == nil {
			jnl = j
		} else {
			slog.Warn("journal unavailable", "path", path, "error", err)
		}
	}

	reg := research.NewRegistry(st, research.Options{
		SessionKey:     sessionKey,
		DefaultAgentID: cfg.Identity.DefaultAgentID,
		Journal:        jnl,
	})
	return reg, cfg, nil
}
