// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package systemctl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// installFakeSystemctl puts a fake systemctl script first on PATH.
// The script appends its arguments to a log file, and fails with the
// message in SYSTEMCTL_FAIL on stderr when that variable is set.
// Returns the log file path.
func installFakeSystemctl(t *testing.T) string {
	t.Helper()

	directory := t.TempDir()
	logPath := filepath.Join(directory, "calls.log")

	script := `#!/bin/sh
echo "$@" >> "$SYSTEMCTL_LOG"
if [ -n "$SYSTEMCTL_FAIL" ]; then
  echo "$SYSTEMCTL_FAIL" >&2
  exit 4
fi
`
	if err := os.WriteFile(filepath.Join(directory, "systemctl"), []byte(script), 0755); err != nil {
		t.Fatalf("write fake systemctl: %v", err)
	}

	t.Setenv("PATH", directory+":"+os.Getenv("PATH"))
	t.Setenv("SYSTEMCTL_LOG", logPath)
	return logPath
}

func loggedCalls(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading call log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestCLIInvocations(t *testing.T) {
	logPath := installFakeSystemctl(t)
	ctx := context.Background()
	cli := &CLI{}

	if err := cli.DaemonReload(ctx); err != nil {
		t.Fatalf("DaemonReload: %v", err)
	}
	if err := cli.EnableNow(ctx, "update-demo.timer"); err != nil {
		t.Fatalf("EnableNow: %v", err)
	}
	if err := cli.Restart(ctx, "run-demo.service"); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if err := cli.DisableNow(ctx, "update-demo.timer"); err != nil {
		t.Fatalf("DisableNow: %v", err)
	}

	want := []string{
		"daemon-reload",
		"enable --now update-demo.timer",
		"restart run-demo.service",
		"disable --now update-demo.timer",
	}
	got := loggedCalls(t, logPath)
	if len(got) != len(want) {
		t.Fatalf("calls: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCLIFailureIncludesStderr(t *testing.T) {
	installFakeSystemctl(t)
	t.Setenv("SYSTEMCTL_FAIL", "Unit run-demo.service not found.")

	cli := &CLI{}
	err := cli.Restart(context.Background(), "run-demo.service")
	if err == nil {
		t.Fatal("Restart: expected error, got nil")
	}
	if !strings.Contains(err.Error(), "systemctl restart run-demo.service") {
		t.Errorf("error does not name the command: %v", err)
	}
	if !strings.Contains(err.Error(), "Unit run-demo.service not found.") {
		t.Errorf("error does not include stderr: %v", err)
	}
}
