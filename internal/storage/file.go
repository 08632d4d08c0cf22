package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrCorruptState marks a store whose backing file exists but cannot be
// decoded. Callers must decide between aborting startup and quarantining the
// file; the data is never discarded silently.
var ErrCorruptState = errors.New("corrupt state")

// writeFileAtomic publishes data under path via a staging file in the same
// directory: write, fsync, rename. A crash at any point leaves either the
// previous snapshot or the complete new one, never a truncated mix.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write staging file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close staging file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod staging file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("publish staging file: %w", err)
	}
	tmpName = ""
	return nil
}

// Quarantine moves a corrupt store file aside so the process can start over
// with empty state without destroying the evidence.
func Quarantine(path string) (string, error) {
	moved := path + ".corrupt-" + time.Now().UTC().Format("20060102T150405Z")
	if err := os.Rename(path, moved); err != nil {
		return "", fmt.Errorf("quarantine %v: %w", path, err)
	}
	return moved, nil
}
