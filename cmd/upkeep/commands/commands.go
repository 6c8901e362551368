// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete upkeep CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/upkeep-project/upkeep/cmd/upkeep/cli"
	"github.com/upkeep-project/upkeep/lib/version"
)

// Root builds and returns the complete upkeep command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "upkeep",
		Description: `Upkeep: self-deploying program updater for systemd.

Point upkeep at a YAML config describing how to update and run a
program, and it installs a timer-driven update cycle that keeps the
program fresh: update commands run on schedule, the program binary is
fingerprinted before and after, and the program's service restarts
only when something actually changed.`,
		Subcommands: []*cli.Command{
			UpdateCommand(),
			RunCommand(),
			RenderCommand(),
			UninstallCommand(),
			VersionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Install the units and run the first update cycle",
				Command:     "upkeep update /etc/geph4/upkeep.yaml",
			},
			{
				Description: "Preview the generated units without touching the system",
				Command:     "upkeep render /etc/geph4/upkeep.yaml",
			},
			{
				Description: "Run the program in the foreground (what run-NAME.service does)",
				Command:     "upkeep run /etc/geph4/upkeep.yaml",
			},
			{
				Description: "Stop the program and remove its units",
				Command:     "upkeep uninstall /etc/geph4/upkeep.yaml",
			},
		},
	}
}

// VersionCommand returns the "upkeep version" subcommand.
func VersionCommand() *cli.Command {
	var short bool

	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Usage:   "upkeep version [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flagSet.BoolVar(&short, "short", false, "print only the version number")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if short {
				fmt.Println(version.Short())
				return nil
			}
			fmt.Printf("upkeep %s\n", version.Full())
			return nil
		},
	}
}
