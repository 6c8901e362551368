// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package shell runs configured command strings through a shell,
// sequentially, stopping at the first failure.
//
// Output is never captured: stdout and stderr are inherited, so
// command output streams straight to the journal under systemd and to
// the terminal when run by hand. Commands get no timeout of their own;
// cancelling the context kills the running command and its children.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
)

// DefaultInterpreter is the shell used when Runner.Shell is empty.
// Configured commands are bash commands by contract.
const DefaultInterpreter = "bash"

// Runner executes command sequences.
type Runner struct {
	// Shell is the interpreter invoked as `Shell -c <command>`,
	// resolved via PATH. Empty means DefaultInterpreter. Tests point
	// this at a nonexistent path to exercise spawn failure.
	Shell string

	// Logger, when set, records each command before it runs.
	Logger *slog.Logger
}

// Run executes commands in order with dir as the working directory of
// each. The first failure stops the sequence: a command that exits
// non-zero becomes a *CommandError, a shell that cannot start becomes
// a *SpawnError.
func (r Runner) Run(ctx context.Context, dir string, commands []string) error {
	interpreter := r.Shell
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for _, command := range commands {
		logger.Debug("running command", "command", command, "dir", dir)

		cmd := exec.CommandContext(ctx, interpreter, "-c", command)
		cmd.Dir = dir
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		// Own process group so that cancellation reaches the shell
		// and all its children (negative PID = the whole group).
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		cmd.Cancel = func() error {
			return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}

		err := cmd.Run()
		if err == nil {
			continue
		}

		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return &CommandError{Command: command, ExitStatus: exitError.ExitCode()}
		}
		return &SpawnError{Command: command, Err: err}
	}
	return nil
}

// CommandError reports a command that ran and exited non-zero.
type CommandError struct {
	Command    string
	ExitStatus int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitStatus)
}

// SpawnError reports that the shell interpreter itself could not be
// started for a command (missing interpreter, unusable working
// directory).
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning shell for %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
