// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/upkeep-project/upkeep/cmd/upkeep/cli"
	"github.com/upkeep-project/upkeep/lib/config"
	"github.com/upkeep-project/upkeep/lib/lockfile"
	"github.com/upkeep-project/upkeep/lib/systemctl"
	"github.com/upkeep-project/upkeep/lib/updater"
)

// UpdateCommand returns the "upkeep update" subcommand.
func UpdateCommand() *cli.Command {
	var unitDir string
	var lockDir string

	return &cli.Command{
		Name:    "update",
		Summary: "Run one update cycle and converge the systemd units",
		Description: `Run one full update cycle for a program.

Acquires the program's update lock, runs the configured update
commands in the config file's directory, and fingerprints the program
binary (and any extra watched paths) before and after. The three
systemd units are regenerated and installed idempotently; the
program's run service is restarted only when a watched path or its
unit file actually changed.

When another update for the same program is still running, this cycle
is skipped: nothing runs, the overlap is logged, and the command exits
non-zero. The next timer tick is an independent attempt.`,
		Usage: "upkeep update <config> [flags]",
		Examples: []cli.Example{
			{
				Description: "Update cycle for a program (what its timer runs)",
				Command:     "upkeep update /etc/geph4/upkeep.yaml",
			},
			{
				Description: "Exercise a config against scratch directories",
				Command:     "upkeep update ./upkeep.yaml --unit-dir /tmp/units --lock-dir /tmp/locks",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("update", pflag.ContinueOnError)
			flagSet.StringVar(&unitDir, "unit-dir", updater.DefaultUnitDir, "directory for generated systemd units")
			flagSet.StringVar(&lockDir, "lock-dir", updater.DefaultLockDir, "directory for update lock files")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: upkeep update <config>")
			}

			cfg, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}
			logger = logger.With("command", "update", "program", cfg.ProgramName)

			u, err := updater.New(cfg, args[0])
			if err != nil {
				return err
			}
			u.UnitDir = unitDir
			u.LockDir = lockDir
			u.Logger = logger
			u.Runner.Logger = logger
			u.Systemctl = &systemctl.CLI{Logger: logger}

			report, err := u.Update(ctx)
			if err != nil {
				var held *lockfile.HeldError
				if errors.As(err, &held) {
					// A timer tick fired while a previous cycle is still
					// running. Fatal for this invocation only; the next
					// tick retries independently. The warn line carries
					// the detail, so no extra error print is needed.
					logger.Warn("another update is already running, skipping this cycle",
						"lock", held.Path)
					return &cli.ExitError{Code: 1}
				}
				return err
			}

			logger.Info("update cycle complete",
				"changed", report.ChangedPaths,
				"reloaded", report.Reloaded,
				"run_started", report.RunStarted,
				"run_restarted", report.RunRestarted)
			return nil
		},
	}
}
