package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Identity.DefaultAgentID != "main" {
		t.Errorf("expected default agent id main, got %q", cfg.Identity.DefaultAgentID)
	}
	if cfg.LockTimeout() != 10*time.Second {
		t.Errorf("expected 10s lock timeout, got %v", cfg.LockTimeout())
	}
	if cfg.LockPoll() != 25*time.Millisecond {
		t.Errorf("expected 25ms poll, got %v", cfg.LockPoll())
	}
	if cfg.StaleLockAge() != 30*time.Second {
		t.Errorf("expected 30s stale age, got %v", cfg.StaleLockAge())
	}
	if !cfg.Journal.Enabled {
		t.Error("expected journal enabled by default")
	}
}

func TestStateDirOverride(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Paths.StateDir = dir

	got, err := cfg.StateDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != dir {
		t.Errorf("expected %q, got %q", dir, got)
	}

	loops, err := cfg.LoopsPath()
	if err != nil {
		t.Fatal(err)
	}
	if loops != filepath.Join(dir, "research", "loops.json") {
		t.Errorf("unexpected loops path %q", loops)
	}
}

func TestStateDirDefaultsUnderHome(t *testing.T) {
	t.Setenv("LOOPDECK_HOME", t.TempDir())
	cfg := DefaultConfig()
	got, err := cfg.StateDir()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(got, ".loopdeck") {
		t.Errorf("expected state dir under ~/.loopdeck, got %q", got)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LOOPDECK_HOME", t.TempDir())
	t.Setenv("LOOPDECK_STATE_DIR", "/var/lib/loopdeck")
	t.Setenv("LOOPDECK_LOCK_TIMEOUT_SECONDS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Paths.StateDir != "/var/lib/loopdeck" {
		t.Errorf("expected env state dir, got %q", cfg.Paths.StateDir)
	}
	if cfg.LockTimeout() != 3*time.Second {
		t.Errorf("expected env lock timeout 3s, got %v", cfg.LockTimeout())
	}
}

func TestLoadConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LOOPDECK_HOME", home)
	if err := os.MkdirAll(filepath.Join(home, ConfigDir), 0o700); err != nil {
		t.Fatal(err)
	}
	content := `{"identity": {"defaultAgentId": "ops"}, "journal": {"enabled": false}}`
	if err := os.WriteFile(filepath.Join(home, ConfigDir, ConfigFile), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Identity.DefaultAgentID != "ops" {
		t.Errorf("expected agent id from file, got %q", cfg.Identity.DefaultAgentID)
	}
	if path, _ := cfg.JournalPath(); path != "" {
		t.Errorf("expected journal disabled, got path %q", path)
	}
}

func TestJournalPathDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths.StateDir = "/tmp/deck"
	path, err := cfg.JournalPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join("/tmp/deck", "research", "journal.db") {
		t.Errorf("unexpected journal path %q", path)
	}
}
