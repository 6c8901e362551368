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

// UninstallCommand returns the "upkeep uninstall" subcommand.
func UninstallCommand() *cli.Command {
	var unitDir string
	var lockDir string

	return &cli.Command{
		Name:    "uninstall",
		Summary: "Stop the program and remove its systemd units",
		Description: `Remove everything upkeep installed for a program.

Stops and disables the update timer and the run service, deletes the
three unit files, and reloads systemd. Idempotent: uninstalling a
program that was never installed succeeds with nothing to do.`,
		Usage: "upkeep uninstall <config> [flags]",
		Examples: []cli.Example{
			{
				Description: "Decommission a program",
				Command:     "upkeep uninstall /etc/geph4/upkeep.yaml",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("uninstall", pflag.ContinueOnError)
			flagSet.StringVar(&unitDir, "unit-dir", updater.DefaultUnitDir, "directory for generated systemd units")
			flagSet.StringVar(&lockDir, "lock-dir", updater.DefaultLockDir, "directory for update lock files")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: upkeep uninstall <config>")
			}

			cfg, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}
			logger = logger.With("command", "uninstall", "program", cfg.ProgramName)

			u, err := updater.New(cfg, args[0])
			if err != nil {
				return err
			}
			u.UnitDir = unitDir
			u.LockDir = lockDir
			u.Logger = logger
			u.Systemctl = &systemctl.CLI{Logger: logger}

			if err := u.Uninstall(ctx); err != nil {
				var held *lockfile.HeldError
				if errors.As(err, &held) {
					return fmt.Errorf("an update for %s is still running, try again when it finishes",
						cfg.ProgramName)
				}
				return err
			}

			logger.Info("uninstall complete")
			return nil
		},
	}
}
