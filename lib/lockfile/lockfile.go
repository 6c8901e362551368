// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package lockfile provides advisory, non-blocking exclusive file
// locks for serializing update cycles.
//
// The exclusion mechanism is flock(2), not the lock file's existence:
// the kernel drops the lock when the holding process exits, however it
// exits, so there is no stale lock file problem and the file is never
// removed. One lock file per program name keeps different programs'
// update cycles independent.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Lock is a held advisory lock. Release it when the protected work is
// done; the kernel also releases it automatically on process exit.
type Lock struct {
	path string
	file *os.File
}

// HeldError reports that another process currently holds the lock.
// Callers treat this as "an update is already running", not as a
// failure of the machinery.
type HeldError struct {
	Path string
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("lock %s is held by another process", e.Path)
}

// Acquire opens (creating if needed) the lock file at path and takes
// an exclusive flock on it without blocking. When another process
// holds the lock, Acquire fails immediately with a *HeldError. The
// parent directory is created if missing.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if err == unix.EWOULDBLOCK {
			return nil, &HeldError{Path: path}
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}

	return &Lock{path: path, file: file}, nil
}

// Release unlocks and closes the lock file. Safe to call more than
// once; calls after the first are no-ops.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil

	if err := unix.Flock(int(file.Fd()), unix.LOCK_UN); err != nil {
		file.Close()
		return fmt.Errorf("unlocking %s: %w", l.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing lock file %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file's path.
func (l *Lock) Path() string {
	return l.path
}
