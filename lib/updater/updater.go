// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package updater orchestrates one update cycle for a managed program:
// serialize against concurrent runs, execute the configured update
// commands, detect whether any watched file actually changed, converge
// the program's systemd units, and restart the program only when
// something it runs from is new.
package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/upkeep-project/upkeep/lib/config"
	"github.com/upkeep-project/upkeep/lib/fingerprint"
	"github.com/upkeep-project/upkeep/lib/lockfile"
	"github.com/upkeep-project/upkeep/lib/shell"
	"github.com/upkeep-project/upkeep/lib/systemctl"
	"github.com/upkeep-project/upkeep/lib/unitfile"
)

// Production defaults. Tests and non-standard layouts override the
// corresponding Updater fields.
const (
	DefaultUnitDir = "/etc/systemd/system"
	DefaultLockDir = "/var/lock"
)

// Updater holds everything an update cycle needs. All fields are
// exported: New fills production defaults, and callers adjust before
// the first use.
type Updater struct {
	Config     *config.Config
	ConfigPath string // absolute; its directory is where commands run
	UnitDir    string
	LockDir    string
	Executable string // the upkeep binary the generated units invoke
	Runner     shell.Runner
	Systemctl  systemctl.Manager
	Logger     *slog.Logger
}

// Report describes what one update cycle observed and did.
type Report struct {
	// ChangedPaths are the watched paths whose fingerprints differed
	// after the update commands ran, spelled as in the config.
	ChangedPaths []string

	// Units maps unit file names to what installing them did.
	Units map[string]unitfile.Disposition

	Reloaded     bool // daemon-reload was issued
	TimerEnabled bool
	RunStarted   bool // first install: run service enabled and started
	RunRestarted bool
}

// New returns an Updater for cfg with production defaults: unit files
// under /etc/systemd/system, locks under /var/lock, the running binary
// as the executable the generated units invoke. The config path is
// made absolute so the units keep working no matter where upkeep was
// invoked from.
func New(cfg *config.Config, configPath string) (*Updater, error) {
	absolutePath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", configPath, err)
	}
	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating own executable: %w", err)
	}
	return &Updater{
		Config:     cfg,
		ConfigPath: absolutePath,
		UnitDir:    DefaultUnitDir,
		LockDir:    DefaultLockDir,
		Executable: executable,
		Systemctl:  &systemctl.CLI{},
	}, nil
}

// Update runs one full cycle: lock, update commands, change detection,
// unit convergence, activation. When another cycle already holds the
// program's lock it returns *lockfile.HeldError with nothing done. Any
// failure aborts the cycle where it happened; steps that did not run
// leave no trace.
func (u *Updater) Update(ctx context.Context) (*Report, error) {
	logger := u.logger()

	lock, err := lockfile.Acquire(u.lockPath())
	if err != nil {
		var held *lockfile.HeldError
		if errors.As(err, &held) {
			return nil, err
		}
		return nil, fmt.Errorf("acquiring update lock: %w", err)
	}
	defer lock.Release()
	logger.Debug("acquired update lock", "path", lock.Path())

	workDir := filepath.Dir(u.ConfigPath)
	watched := u.Config.WatchedPaths()

	// Fingerprints are captured before the commands run, so a change
	// made by this very cycle is always visible in the comparison.
	before, err := fingerprint.Snapshot(workDir, watched)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting watched paths: %w", err)
	}
	logger.Debug("captured fingerprints", "watched", len(watched), "present", len(before))

	if err := u.Runner.Run(ctx, workDir, u.Config.Update.Commands); err != nil {
		return nil, fmt.Errorf("running update commands: %w", err)
	}

	after, err := fingerprint.Snapshot(workDir, watched)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting watched paths: %w", err)
	}

	changed := fingerprint.Changed(before, after)
	if len(changed) > 0 {
		logger.Info("watched paths changed", "paths", changed)
	} else {
		logger.Debug("no watched paths changed")
	}

	set := unitfile.Render(u.Config, unitfile.Facts{
		Executable: u.Executable,
		ConfigPath: u.ConfigPath,
		WorkingDir: workDir,
	})

	report := &Report{
		ChangedPaths: changed,
		Units:        make(map[string]unitfile.Disposition, 3),
	}
	for _, unit := range set.All() {
		disposition, err := unitfile.Install(filepath.Join(u.UnitDir, unit.Name), unit.Content)
		if err != nil {
			return nil, fmt.Errorf("installing unit files: %w", err)
		}
		report.Units[unit.Name] = disposition
		if disposition.Changed() {
			logger.Info("installed unit", "unit", unit.Name, "disposition", disposition)
		} else {
			logger.Debug("unit already current", "unit", unit.Name)
		}
	}

	if anyUnitChanged(report.Units) {
		if err := u.Systemctl.DaemonReload(ctx); err != nil {
			return nil, fmt.Errorf("reloading systemd: %w", err)
		}
		report.Reloaded = true
	}

	// Enabling the timer every cycle keeps it idempotent and doubles
	// as the initial activation on first install.
	if err := u.Systemctl.EnableNow(ctx, set.UpdateTimer.Name); err != nil {
		return nil, fmt.Errorf("enabling update timer: %w", err)
	}
	report.TimerEnabled = true

	runDisposition := report.Units[set.RunService.Name]
	switch {
	case runDisposition == unitfile.Created:
		// First install: boot the program now rather than waiting for
		// the next change. It just started, so no restart follows.
		if err := u.Systemctl.EnableNow(ctx, set.RunService.Name); err != nil {
			return nil, fmt.Errorf("starting run service: %w", err)
		}
		report.RunStarted = true
		logger.Info("run service installed and started", "unit", set.RunService.Name)
	case len(changed) > 0 || runDisposition == unitfile.Updated:
		if err := u.Systemctl.Restart(ctx, set.RunService.Name); err != nil {
			return nil, fmt.Errorf("restarting run service: %w", err)
		}
		report.RunRestarted = true
		logger.Info("restarted run service",
			"unit", set.RunService.Name, "changed", changed, "disposition", runDisposition)
	default:
		logger.Info("nothing changed, run service left alone", "unit", set.RunService.Name)
	}

	return report, nil
}

func (u *Updater) lockPath() string {
	return filepath.Join(u.LockDir, "update-"+u.Config.ProgramName+".lock")
}

func (u *Updater) logger() *slog.Logger {
	if u.Logger != nil {
		return u.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func anyUnitChanged(units map[string]unitfile.Disposition) bool {
	for _, disposition := range units {
		if disposition.Changed() {
			return true
		}
	}
	return false
}
