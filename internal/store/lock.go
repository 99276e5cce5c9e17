package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// LockPath returns the sidecar lock file path for the document.
func (s *Store) LockPath() string { return s.path + ".lock" }

// Lock acquires the exclusive sidecar lock, polling until it is free. A lock
// file whose mtime is older than StaleAfter is treated as abandoned and
// removed. Returns the spec'd timeout error when the deadline passes.
func (s *Store) Lock(ctx context.Context) error {
	lockPath := s.LockPath()
	deadline := time.Now().Add(s.opts.LockTimeout)
	mkdirTried := false
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return nil
		}
		if !os.IsExist(err) {
			// The parent dir may not exist yet on first contact.
			if !mkdirTried {
				mkdirTried = true
				if mkErr := os.MkdirAll(filepath.Dir(lockPath), 0o700); mkErr == nil {
					continue
				}
			}
			return err
		}
		if info, statErr := os.Stat(lockPath); statErr == nil {
			if time.Since(info.ModTime()) > s.opts.StaleAfter {
				slog.Warn("removing stale registry lock", "path", lockPath, "age", time.Since(info.ModTime()))
				_ = os.Remove(lockPath)
				continue
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout acquiring research loop registry lock: %s", lockPath)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.opts.PollInterval):
		}
	}
}

// Unlock releases the lock. Removal failures are swallowed; a leftover lock
// file ages out through the stale window.
func (s *Store) Unlock() {
	_ = os.Remove(s.LockPath())
}

