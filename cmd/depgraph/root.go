// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/depgraph/pkg/logging"
	"github.com/AleutianAI/depgraph/pkg/ux"
	"github.com/AleutianAI/depgraph/services/depgraph/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess means the command completed and every file was analyzed.
	ExitSuccess = 0

	// ExitPartial means a usable graph was produced but some files failed
	// or dispatch stopped early.
	ExitPartial = 1

	// ExitError means invalid invocation or a fatal error.
	ExitError = 2
)

// exitError carries a process exit code through cobra. A nil err means
// the command already reported the outcome.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func fail(err error) error {
	return &exitError{code: ExitError, err: err}
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// cli holds state shared by every command of one invocation.
type cli struct {
	stdout  io.Writer
	stderr  io.Writer
	printer *ux.Printer

	configPath string
	envFile    string
	verbose    bool
	quiet      bool
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{
		stdout:  stdout,
		stderr:  stderr,
		printer: ux.NewPrinter(stdout, stderr),
		envFile: ".env",
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "depgraph",
		Short: "Build a lexical dependency graph of a source tree",
		Long: `depgraph scans a source tree, extracts declarations and imports with
per-language lexical rules, resolves relative imports to files, and
reports graph metrics.

Configuration is read from .depgraph.yaml (or --config), a .env file,
DEPGRAPH_* environment variables, and finally command-line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	root.PersistentFlags().StringVar(&c.configPath, "config", "",
		"Path to a YAML config file (default ./.depgraph.yaml if present)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false,
		"Log at debug level")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false,
		"Only log errors")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if c.verbose && c.quiet {
			return fail(errors.New("--verbose and --quiet cannot be used together"))
		}
		return nil
	}

	root.AddCommand(newAnalyzeCmd(c))
	root.AddCommand(newLanguagesCmd(c))
	root.AddCommand(newRunsCmd(c))
	return root
}

// execute runs the CLI and maps the outcome to an exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := newCLI(stdout, stderr)
	root := newRootCmd(c)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			c.printer.Error(ee.err.Error())
		}
		return ee.code
	}
	// Flag parsing and argument validation errors from cobra.
	c.printer.Error(err.Error())
	return ExitError
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the merged configuration and applies the global
// verbosity flags.
func (c *cli) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath, config.WithEnvFile(c.envFile))
	if err != nil {
		return config.Config{}, err
	}
	switch {
	case c.verbose:
		cfg.Log.Level = "debug"
	case c.quiet:
		cfg.Log.Level = "error"
	}
	return cfg, nil
}

func (c *cli) newLogger(cfg config.Config) *logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Log.Dir,
		Service: "depgraph",
		JSON:    cfg.Log.JSON,
		Writer:  c.stderr,
	})
}
