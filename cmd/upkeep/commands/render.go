// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/upkeep-project/upkeep/cmd/upkeep/cli"
	"github.com/upkeep-project/upkeep/lib/config"
	"github.com/upkeep-project/upkeep/lib/unitfile"
	"github.com/upkeep-project/upkeep/lib/updater"
)

// RenderCommand returns the "upkeep render" subcommand.
func RenderCommand() *cli.Command {
	return &cli.Command{
		Name:    "render",
		Summary: "Print the generated systemd units without installing them",
		Description: `Print the three systemd units for a config to stdout.

Nothing on the system is touched: no lock, no update commands, no
writes. Each unit is preceded by a "# NAME" header line. Useful for
reviewing what an update cycle would install.`,
		Usage: "upkeep render <config>",
		Examples: []cli.Example{
			{
				Description: "Review the units before the first update",
				Command:     "upkeep render /etc/geph4/upkeep.yaml",
			},
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: upkeep render <config>")
			}

			cfg, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}
			u, err := updater.New(cfg, args[0])
			if err != nil {
				return err
			}

			set := unitfile.Render(cfg, unitfile.Facts{
				Executable: u.Executable,
				ConfigPath: u.ConfigPath,
				WorkingDir: filepath.Dir(u.ConfigPath),
			})
			for i, unit := range set.All() {
				if i > 0 {
					fmt.Println()
				}
				fmt.Printf("# %s\n%s", unit.Name, unit.Content)
			}
			return nil
		},
	}
}
