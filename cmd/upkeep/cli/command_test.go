// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "upkeep",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "update",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "update"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"update"}, testLogger()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "update" {
		t.Errorf("dispatched to %q, want %q", called, "update")
	}
}

func TestCommand_Execute_PassesContextAndLogger(t *testing.T) {
	type contextKey struct{}
	wantCtx := context.WithValue(context.Background(), contextKey{}, "present")
	wantLogger := testLogger()

	var gotCtx context.Context
	var gotLogger *slog.Logger

	root := &Command{
		Name: "upkeep",
		Subcommands: []*Command{
			{
				Name: "update",
				Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
					gotCtx = ctx
					gotLogger = logger
					return nil
				},
			},
		},
	}

	if err := root.Execute(wantCtx, []string{"update"}, wantLogger); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if gotCtx == nil || gotCtx.Value(contextKey{}) != "present" {
		t.Error("context was not threaded through to Run")
	}
	if gotLogger != wantLogger {
		t.Error("logger was not threaded through to Run")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "upkeep",
		Subcommands: []*Command{
			{
				Name: "config",
				Subcommands: []*Command{
					{
						Name: "check",
						Run: func(_ context.Context, args []string, _ *slog.Logger) error {
							called = "config check"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"config", "check", "extra-arg"}, testLogger()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "config check" {
		t.Errorf("dispatched to %q, want %q", called, "config check")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "extra-arg" {
		t.Errorf("args = %v, want [extra-arg]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var unitDir string
	var target string

	command := &Command{
		Name: "update",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("update", pflag.ContinueOnError)
			flagSet.StringVar(&unitDir, "unit-dir", "/etc/systemd/system", "unit directory")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--unit-dir", "/tmp/units", "geph4.yaml"}, testLogger()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if unitDir != "/tmp/units" {
		t.Errorf("unitDir = %q, want %q", unitDir, "/tmp/units")
	}
	if target != "geph4.yaml" {
		t.Errorf("target = %q, want %q", target, "geph4.yaml")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "update",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("update", pflag.ContinueOnError)
			flagSet.String("unit-dir", "/etc/systemd/system", "unit directory")
			flagSet.String("lock-dir", "/var/lock", "lock directory")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--unit-dri"}, testLogger())
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --unit-dir") {
		t.Errorf("error = %q, want suggestion for '--unit-dir'", errStr)
	}
	// Suggestion should be on the same line as the error, not buried.
	if !strings.Contains(errStr, "unit-dri") {
		t.Errorf("error = %q, should mention the bad flag", errStr)
	}
	// Should include a pointer to --help.
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "update",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("update", pflag.ContinueOnError)
			flagSet.String("unit-dir", "/etc/systemd/system", "unit directory")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--zzzzzzzzz"}, testLogger())
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "upkeep",
		Subcommands: []*Command{
			{Name: "update"},
			{Name: "render"},
			{Name: "version"},
		},
	}

	err := root.Execute(context.Background(), []string{"updtae"}, testLogger())
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"update\"") {
		t.Errorf("error = %q, want suggestion for 'update'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "upkeep",
		Subcommands: []*Command{
			{Name: "update"},
			{Name: "render"},
		},
	}

	err := root.Execute(context.Background(), []string{"zzzzzzz"}, testLogger())
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "upkeep",
				Summary: "Self-deploying program updater",
				Subcommands: []*Command{
					{Name: "update", Summary: "Run one update cycle"},
				},
			}

			err := root.Execute(context.Background(), []string{helpArg}, testLogger())
			if err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "upkeep",
		Subcommands: []*Command{
			{Name: "update", Summary: "Run one update cycle"},
		},
	}

	err := root.Execute(context.Background(), []string{}, testLogger())
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "upkeep",
		Description: "Self-deploying program updater for systemd.",
		Subcommands: []*Command{
			{Name: "update", Summary: "Run one update cycle"},
			{Name: "render", Summary: "Print the generated units"},
			{Name: "version", Summary: "Print version information"},
		},
		Examples: []Example{
			{
				Description: "Install the units and run the first cycle",
				Command:     "upkeep update /etc/geph4/upkeep.yaml",
			},
			{
				Description: "Preview the generated units",
				Command:     "upkeep render /etc/geph4/upkeep.yaml",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	// Verify structural elements are present.
	for _, want := range []string{
		"Self-deploying program updater for systemd.",
		"Usage:",
		"upkeep <command> [flags]",
		"Commands:",
		"update",
		"Run one update cycle",
		"render",
		"Print the generated units",
		"Examples:",
		"upkeep update /etc/geph4/upkeep.yaml",
		"upkeep render /etc/geph4/upkeep.yaml",
		"Run 'upkeep <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:    "update",
		Summary: "Run one update cycle",
		Usage:   "upkeep update <config> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("update", pflag.ContinueOnError)
			flagSet.String("unit-dir", "/etc/systemd/system", "directory for generated units")
			flagSet.String("lock-dir", "/var/lock", "directory for lock files")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"upkeep update <config> [flags]",
		"Flags:",
		"unit-dir",
		"lock-dir",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "upkeep"}
	configCmd := &Command{Name: "config", parent: root}
	check := &Command{Name: "check", parent: configCmd}

	if got := root.fullName(); got != "upkeep" {
		t.Errorf("root.fullName() = %q, want %q", got, "upkeep")
	}
	if got := configCmd.fullName(); got != "upkeep config" {
		t.Errorf("config.fullName() = %q, want %q", got, "upkeep config")
	}
	if got := check.fullName(); got != "upkeep config check" {
		t.Errorf("check.fullName() = %q, want %q", got, "upkeep config check")
	}
}
