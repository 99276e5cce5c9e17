//go:build !windows

package store

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// writeFile commits data via a sibling temp file and rename so concurrent
// readers never observe a torn document.
func (s *Store) writeFile(data []byte) error {
	var suffix [4]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.%d.%s.tmp", s.path, os.Getpid(), hex.EncodeToString(suffix[:]))
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Chmod(s.path, 0o600)
}
