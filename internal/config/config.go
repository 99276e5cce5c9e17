// Package config provides configuration types and loading for loopdeck.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration struct.
type Config struct {
	Paths    PathsConfig    `json:"paths"`
	Identity IdentityConfig `json:"identity"`
	Registry RegistryConfig `json:"registry"`
	Journal  JournalConfig  `json:"journal"`
}

// PathsConfig groups filesystem path settings. StateDir is where the
// registry document and journal live; it honors the LOOPDECK_STATE_DIR
// override.
type PathsConfig struct {
	StateDir string `json:"stateDir" envconfig:"LOOPDECK_STATE_DIR"`
}

// IdentityConfig scopes registry access.
type IdentityConfig struct {
	DefaultAgentID string `json:"defaultAgentId" envconfig:"LOOPDECK_DEFAULT_AGENT_ID"`
}

// RegistryConfig tunes the cross-process lock discipline.
type RegistryConfig struct {
	LockTimeoutSeconds  int `json:"lockTimeoutSeconds" envconfig:"LOOPDECK_LOCK_TIMEOUT_SECONDS"`
	LockPollMillis      int `json:"lockPollMillis" envconfig:"LOOPDECK_LOCK_POLL_MILLIS"`
	StaleLockAgeSeconds int `json:"staleLockAgeSeconds" envconfig:"LOOPDECK_STALE_LOCK_AGE_SECONDS"`
}

// JournalConfig controls the optional audit journal.
type JournalConfig struct {
	Enabled bool   `json:"enabled" envconfig:"LOOPDECK_JOURNAL_ENABLED"`
	Path    string `json:"path,omitempty" envconfig:"LOOPDECK_JOURNAL_PATH"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Identity: IdentityConfig{DefaultAgentID: "main"},
		Registry: RegistryConfig{
			LockTimeoutSeconds:  10,
			LockPollMillis:      25,
			StaleLockAgeSeconds: 30,
		},
		Journal: JournalConfig{Enabled: true},
	}
}

// StateDir resolves the effective state directory: the configured value, or
// ~/.loopdeck (honoring LOOPDECK_HOME).
func (c *Config) StateDir() (string, error) {
	if dir := strings.TrimSpace(c.Paths.StateDir); dir != "" {
		return expandHome(dir)
	}
	home, err := resolveHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".loopdeck"), nil
}

// LoopsPath returns the registry document path under the state directory.
func (c *Config) LoopsPath() (string, error) {
	dir, err := c.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "research", "loops.json"), nil
}

// JournalPath returns the journal database path, or "" when disabled.
func (c *Config) JournalPath() (string, error) {
	if !c.Journal.Enabled {
		return "", nil
	}
	if p := strings.TrimSpace(c.Journal.Path); p != "" {
		return expandHome(p)
	}
	dir, err := c.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "research", "journal.db"), nil
}

// LockTimeout returns the configured lock timeout.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Registry.LockTimeoutSeconds) * time.Second
}

// LockPoll returns the configured lock poll interval.
func (c *Config) LockPoll() time.Duration {
	return time.Duration(c.Registry.LockPollMillis) * time.Millisecond
}

// StaleLockAge returns the configured stale lock window.
func (c *Config) StaleLockAge() time.Duration {
	return time.Duration(c.Registry.StaleLockAgeSeconds) * time.Second
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}
