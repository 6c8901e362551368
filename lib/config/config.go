// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads and validates upkeep program configs.
//
// A config is a single YAML file describing one managed program: its
// name, the binary to watch, how to update it, and how to run it. The
// file's directory doubles as the working directory for every command
// upkeep runs on the program's behalf, so relative paths inside the
// config resolve against the config file, not against wherever upkeep
// happened to be invoked from.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes one managed program.
type Config struct {
	// ProgramName names the program. It is embedded into the derived
	// unit names (update-NAME.service, update-NAME.timer,
	// run-NAME.service) and into the lock file name, so it is
	// restricted to characters valid in a systemd unit name.
	ProgramName string `yaml:"program_name"`

	// ProgramPath is the path to the program binary whose content
	// decides whether the run service restarts after an update.
	// Relative paths resolve against the config file's directory.
	ProgramPath string `yaml:"program_path"`

	// Update configures the update cycle.
	Update UpdateSpec `yaml:"update"`

	// Run configures the program's workload.
	Run RunSpec `yaml:"run"`
}

// UpdateSpec configures how the program is updated and how often.
type UpdateSpec struct {
	// Interval is how often the update timer fires, carried verbatim
	// into the timer's OnUnitActiveSec=. A bare number means seconds;
	// systemd time spans ("5min", "1h 30m") pass through untouched.
	Interval Interval `yaml:"interval"`

	// Commands are the shell commands that perform the update (fetch,
	// build, install), run in order from the config's directory. The
	// first failing command stops the sequence.
	Commands []string `yaml:"commands"`

	// Watch lists extra paths whose content, alongside ProgramPath,
	// gates the run service restart. Relative paths resolve against
	// the config file's directory.
	Watch []string `yaml:"watch"`
}

// RunSpec configures the program's workload.
type RunSpec struct {
	// Commands are the shell commands that run the program itself,
	// executed in order by `upkeep run` under the generated run
	// service.
	Commands []string `yaml:"commands"`
}

// Interval is a timer period carried as its literal YAML text. Both
// numeric scalars (300) and string scalars ("5min") are accepted; the
// text reaches systemd unmodified.
type Interval string

// UnmarshalYAML accepts any scalar node and keeps its literal text.
func (i *Interval) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: interval must be a single scalar value", node.Line)
	}
	*i = Interval(node.Value)
	return nil
}

// programNamePattern constrains ProgramName to characters that are
// valid in a systemd unit name and form a single path element.
var programNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// LoadFile reads, parses, and validates the config at path. Failures
// to read the file are reported as a *ReadError; everything between
// reading and a valid Config is a *ParseError.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	cfg, err := Load(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return cfg, nil
}

// Load parses and validates a config from raw YAML.
func Load(data []byte) (*Config, error) {
	var cfg Config

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	// Unknown keys are errors: a typo like "comands:" must fail loudly
	// instead of silently running zero commands.
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("config is empty")
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structural requirements and reports every
// violation at once. Command strings are deliberately not inspected;
// they are trusted operator input executed verbatim.
func (c *Config) Validate() error {
	var errs []error

	if c.ProgramName == "" {
		errs = append(errs, errors.New("program_name is required"))
	} else if !programNamePattern.MatchString(c.ProgramName) {
		errs = append(errs, fmt.Errorf("program_name %q may only contain letters, digits, '.', '_', and '-'", c.ProgramName))
	}

	if c.ProgramPath == "" {
		errs = append(errs, errors.New("program_path is required"))
	}

	if c.Update.Interval == "" {
		errs = append(errs, errors.New("update.interval is required"))
	} else if strings.ContainsAny(string(c.Update.Interval), "\r\n") {
		// The interval is embedded into a unit file line.
		errs = append(errs, fmt.Errorf("update.interval %q must be a single line", c.Update.Interval))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// WatchedPaths returns the paths whose fingerprints gate the run
// service restart: the program binary first, then any extra watch
// entries, order preserved.
func (c *Config) WatchedPaths() []string {
	paths := make([]string, 0, 1+len(c.Update.Watch))
	paths = append(paths, c.ProgramPath)
	paths = append(paths, c.Update.Watch...)
	return paths
}

// ReadError reports a config file that could not be read at all
// (missing file, permission denied).
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading config %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ParseError reports a config file that was read but is not a valid
// config: malformed YAML, wrong types, unknown keys, or failed
// validation.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
