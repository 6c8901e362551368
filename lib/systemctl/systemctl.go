// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package systemctl provides typed access to the systemctl CLI for the
// unit operations upkeep performs: reloading the daemon after unit
// files change, enabling timers and services, and restarting the
// managed program. The Manager interface is what the updater consumes;
// tests substitute an in-memory recorder for the real CLI.
package systemctl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// Manager is the subset of systemd operations the updater needs.
type Manager interface {
	// DaemonReload makes systemd re-read unit files from disk. Required
	// after any unit file is created or modified.
	DaemonReload(ctx context.Context) error

	// EnableNow enables a unit for boot and starts it immediately
	// (systemctl enable --now). Idempotent on already-enabled units.
	EnableNow(ctx context.Context, unit string) error

	// Restart stops and starts a unit, or starts it if not running.
	Restart(ctx context.Context, unit string) error

	// DisableNow disables a unit and stops it immediately (systemctl
	// disable --now).
	DisableNow(ctx context.Context, unit string) error
}

// CLI drives the system systemd instance through the systemctl binary.
type CLI struct {
	// Logger receives a debug line per invocation. Nil discards.
	Logger *slog.Logger
}

var _ Manager = (*CLI)(nil)

func (c *CLI) DaemonReload(ctx context.Context) error {
	return c.run(ctx, "daemon-reload")
}

func (c *CLI) EnableNow(ctx context.Context, unit string) error {
	return c.run(ctx, "enable", "--now", unit)
}

func (c *CLI) Restart(ctx context.Context, unit string) error {
	return c.run(ctx, "restart", unit)
}

func (c *CLI) DisableNow(ctx context.Context, unit string) error {
	return c.run(ctx, "disable", "--now", unit)
}

// run executes systemctl with the given arguments. Stderr is captured
// and included in error messages on failure, because systemctl writes
// its diagnostics there.
func (c *CLI) run(ctx context.Context, args ...string) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger.Debug("invoking systemctl", "args", args)

	var stderr bytes.Buffer
	command := exec.CommandContext(ctx, "systemctl", args...)
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return fmt.Errorf("systemctl %s: %w (stderr: %s)",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
