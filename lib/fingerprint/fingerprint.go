// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package fingerprint answers "did the watched files actually change"
// with SHA256 content digests.
//
// Update commands frequently rebuild a program without producing a
// different binary (a git pull with no new commits, a rebuild with a
// warm cache). Comparing content digests captured before and after the
// update commands avoids restarting the run service for those no-op
// updates. Digests live only for the duration of one update cycle;
// nothing is persisted.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// Digest is a SHA256 content digest.
type Digest [32]byte

// String returns the lowercase hex encoding, the canonical form for
// log output.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// File computes the digest of the file at path. The file is streamed
// through the hash function in chunks (via io.Copy) to keep memory
// usage constant regardless of file size.
func File(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// Snapshot digests every path in paths, resolving relative entries
// against dir. Keys are the paths as given, not the resolved ones.
//
// A path that does not exist is omitted rather than reported as an
// error: before the first ever update the program binary typically
// does not exist yet, and absent-then-present must read as a change,
// not as a failure. Any other I/O failure aborts the snapshot.
func Snapshot(dir string, paths []string) (map[string]Digest, error) {
	snapshot := make(map[string]Digest, len(paths))
	for _, path := range paths {
		resolved := path
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(dir, resolved)
		}

		digest, err := File(resolved)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		snapshot[path] = digest
	}
	return snapshot, nil
}

// Changed returns the sorted paths whose digest differs between the
// two snapshots, including paths present in only one of them. An
// empty result means nothing changed.
func Changed(before, after map[string]Digest) []string {
	var changed []string
	for path, digest := range after {
		previous, existed := before[path]
		if !existed || previous != digest {
			changed = append(changed, path)
		}
	}
	for path := range before {
		if _, exists := after[path]; !exists {
			changed = append(changed, path)
		}
	}
	slices.Sort(changed)
	return changed
}
