// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package unitfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Disposition reports what Install found and did.
type Disposition int

const (
	// Unchanged means the file already held exactly the desired
	// content and was not touched.
	Unchanged Disposition = iota

	// Updated means the file existed with different content and was
	// replaced.
	Updated

	// Created means the file did not exist and was written.
	Created
)

func (d Disposition) String() string {
	switch d {
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	case Created:
		return "created"
	default:
		return fmt.Sprintf("disposition(%d)", int(d))
	}
}

// Changed reports whether the on-disk content differs from what was
// there before Install ran.
func (d Disposition) Changed() bool {
	return d != Unchanged
}

// Install converges the file at path to content. A byte-identical
// existing file is left completely untouched: no write, no mtime
// churn. Anything else is replaced atomically, so systemd never
// observes a partially written unit.
func Install(path, content string) (Disposition, error) {
	existing, err := os.ReadFile(path)
	disposition := Updated
	switch {
	case err == nil:
		if string(existing) == content {
			return Unchanged, nil
		}
	case errors.Is(err, fs.ErrNotExist):
		disposition = Created
	default:
		return Unchanged, fmt.Errorf("reading existing unit %s: %w", path, err)
	}

	if err := writeAtomic(path, []byte(content)); err != nil {
		return Unchanged, err
	}
	return disposition, nil
}

// Remove deletes the unit file at path and reports whether a file was
// actually removed. A path that does not exist is a clean false.
func Remove(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("removing unit %s: %w", path, err)
	}
	return true, nil
}

// writeAtomic writes data to path via a temp file in the same
// directory: write, sync, close, rename, then sync the parent
// directory so the rename survives power loss.
func writeAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating temporary unit file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary unit file: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary unit file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary unit file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming unit file into place: %w", err)
	}

	if parent, err := os.Open(filepath.Dir(path)); err == nil {
		parent.Sync()
		parent.Close()
	}

	return nil
}
