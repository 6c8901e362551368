// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package unitfile renders and installs the systemd units that keep a
// managed program updated and running.
//
// Three units exist per program, named from its program_name:
//
//   - update-NAME.service: oneshot, runs `upkeep update <config>`
//   - update-NAME.timer: schedules the update service
//   - run-NAME.service: the program itself, via `upkeep run <config>`
//
// Rendering is pure text generation: the same Config and Facts always
// produce identical bytes, with no clock, I/O, or process state
// involved. Installation converges files on disk byte-for-byte and
// reports whether anything changed, so callers can decide whether a
// daemon-reload is warranted.
package unitfile

import (
	"fmt"

	"github.com/upkeep-project/upkeep/lib/config"
)

// Facts are the environment inputs to rendering, assembled by the
// caller once at startup.
type Facts struct {
	// Executable is the absolute path of the upkeep binary that the
	// generated units invoke.
	Executable string

	// ConfigPath is the absolute path of the program's config file,
	// echoed back into ExecStart= so the units are self-describing.
	ConfigPath string

	// WorkingDir is the directory update and run commands execute
	// from, normally the config file's directory.
	WorkingDir string
}

// File is a rendered unit: its systemd unit name and exact content.
type File struct {
	Name    string
	Content string
}

// Set is the complete trio of units for one program.
type Set struct {
	UpdateService File
	UpdateTimer   File
	RunService    File
}

// All returns the units in installation order: update service, update
// timer, run service.
func (s Set) All() []File {
	return []File{s.UpdateService, s.UpdateTimer, s.RunService}
}

// Names returns the unit names derived from a program name.
func Names(programName string) (updateService, updateTimer, runService string) {
	return "update-" + programName + ".service",
		"update-" + programName + ".timer",
		"run-" + programName + ".service"
}

const updateServiceTemplate = `[Unit]
Description=upkeep update for %[1]s
Wants=run-%[1]s.service
After=network-online.target

[Service]
Type=oneshot
WorkingDirectory=%[2]s
ExecStart=%[3]s update %[4]s
`

const updateTimerTemplate = `[Unit]
Description=upkeep update timer for %[1]s

[Timer]
OnBootSec=1min
OnUnitActiveSec=%[2]s
Unit=update-%[1]s.service

[Install]
WantedBy=timers.target
`

const runServiceTemplate = `[Unit]
Description=upkeep run for %[1]s

[Service]
Type=simple
WorkingDirectory=%[2]s
ExecStart=%[3]s run %[4]s
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`

// Render produces the three units for cfg. The update service has no
// [Install] section: it is started by its timer, never enabled
// directly. The timer's OnUnitActiveSec carries the config's interval
// text verbatim, so any systemd time span the operator wrote is
// preserved.
func Render(cfg *config.Config, facts Facts) Set {
	updateService, updateTimer, runService := Names(cfg.ProgramName)
	return Set{
		UpdateService: File{
			Name: updateService,
			Content: fmt.Sprintf(updateServiceTemplate,
				cfg.ProgramName, facts.WorkingDir, facts.Executable, facts.ConfigPath),
		},
		UpdateTimer: File{
			Name: updateTimer,
			Content: fmt.Sprintf(updateTimerTemplate,
				cfg.ProgramName, cfg.Update.Interval),
		},
		RunService: File{
			Name: runService,
			Content: fmt.Sprintf(runServiceTemplate,
				cfg.ProgramName, facts.WorkingDir, facts.Executable, facts.ConfigPath),
		},
	}
}
