// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package updater

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/upkeep-project/upkeep/lib/lockfile"
	"github.com/upkeep-project/upkeep/lib/unitfile"
)

// Uninstall removes everything Update installed for the program: the
// timer, the run service, and all three unit files, followed by a
// daemon-reload if anything was actually removed. Idempotent —
// uninstalling a program that was never installed succeeds with
// nothing to do.
func (u *Updater) Uninstall(ctx context.Context) error {
	logger := u.logger()

	lock, err := lockfile.Acquire(u.lockPath())
	if err != nil {
		var held *lockfile.HeldError
		if errors.As(err, &held) {
			return err
		}
		return fmt.Errorf("acquiring update lock: %w", err)
	}
	defer lock.Release()

	updateService, updateTimer, runService := unitfile.Names(u.Config.ProgramName)

	// Stop the schedule before the workload so no new cycle fires into
	// the middle of the removal. A disable failure is tolerated only
	// when the unit file is absent, meaning there was nothing systemd
	// could know about.
	for _, unit := range []string{updateTimer, runService} {
		err := u.Systemctl.DisableNow(ctx, unit)
		if err == nil {
			continue
		}
		if _, statErr := os.Stat(filepath.Join(u.UnitDir, unit)); errors.Is(statErr, fs.ErrNotExist) {
			logger.Debug("unit not installed, skipping disable", "unit", unit)
			continue
		}
		return fmt.Errorf("disabling %s: %w", unit, err)
	}

	removedAny := false
	for _, unit := range []string{updateService, updateTimer, runService} {
		removed, err := unitfile.Remove(filepath.Join(u.UnitDir, unit))
		if err != nil {
			return err
		}
		if removed {
			logger.Info("removed unit file", "unit", unit)
			removedAny = true
		}
	}

	if !removedAny {
		logger.Info("no unit files installed, nothing to remove", "program", u.Config.ProgramName)
		return nil
	}

	if err := u.Systemctl.DaemonReload(ctx); err != nil {
		return fmt.Errorf("reloading systemd: %w", err)
	}
	return nil
}
