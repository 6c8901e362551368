// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/upkeep-project/upkeep/cmd/upkeep/cli"
	"github.com/upkeep-project/upkeep/lib/config"
	"github.com/upkeep-project/upkeep/lib/shell"
)

// RunCommand returns the "upkeep run" subcommand.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Summary: "Run the program's run commands in the foreground",
		Description: `Run the program's run commands in the config file's directory.

This is what run-NAME.service executes. Commands run in order through
the shell with inherited stdio; the first failure stops the sequence
and the command exits with the failing command's status, so the
service's Restart=on-failure takes over.`,
		Usage: "upkeep run <config>",
		Examples: []cli.Example{
			{
				Description: "Run a program the way its service does",
				Command:     "upkeep run /etc/geph4/upkeep.yaml",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: upkeep run <config>")
			}

			cfg, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}
			logger = logger.With("command", "run", "program", cfg.ProgramName)

			configPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolving config path %s: %w", args[0], err)
			}

			runner := shell.Runner{Logger: logger}
			err = runner.Run(ctx, filepath.Dir(configPath), cfg.Run.Commands)
			var commandErr *shell.CommandError
			if errors.As(err, &commandErr) {
				// The program already wrote its diagnostics to stderr;
				// pass its exit status through to systemd unadorned.
				logger.Error("run command failed",
					"run_command", commandErr.Command, "status", commandErr.ExitStatus)
				return &cli.ExitError{Code: commandErr.ExitStatus}
			}
			return err
		},
	}
}
