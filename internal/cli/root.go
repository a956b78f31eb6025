/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli wires configuration, logging and the inventory into the
// libinventory command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"libinventory/internal/config"
	"libinventory/internal/crash"
	applog "libinventory/internal/log"
	"libinventory/internal/storage"

	"github.com/spf13/cobra"
)

// errRejected marks an operation the inventory refused. The reason has
// already been printed, so Execute only turns it into exit status 1.
var errRejected = errors.New("operation rejected")

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DataFile   string
	LogFile    string
	LogLevel   string
	Verbose    bool
}

// app carries what the commands share once the configuration is resolved.
type app struct {
	opts     *RootOptions
	cfg      config.AppConfig
	logger   *slog.Logger
	closeLog func() error
	inv      *storage.Inventory
}

// recoverPanic is deferred around every command that holds the inventory.
var recoverPanic = crash.Recover

// NewRootCommand creates the root command. Without a subcommand it runs the
// interactive menu.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRoot()
	return cmd
}

func newRoot() (*cobra.Command, *app) {
	a := &app{opts: &RootOptions{}}

	cmd := &cobra.Command{
		Use:           "libinventory",
		Short:         "Library inventory manager",
		Long:          "Track a small collection of books in a JSON file: add, issue, return and search.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMenu(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.opts.ConfigPath, "config", "", "config file (default is the per-user config.yaml)")
	pf.StringVarP(&a.opts.DataFile, "file", "f", "", "inventory JSON file (overrides config)")
	pf.StringVar(&a.opts.LogFile, "log-file", "", "log file; empty string disables file logging (overrides config)")
	pf.StringVar(&a.opts.LogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	pf.BoolVarP(&a.opts.Verbose, "verbose", "v", false, "also log to stderr")

	cmd.AddCommand(
		newMenuCommand(a),
		newAddCommand(a),
		newIssueCommand(a),
		newReturnCommand(a),
		newListCommand(a),
		newSearchCommand(a),
		newExportCommand(a),
		newSchemaCommand(),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return cmd, a
}

// Execute runs the command tree with the process arguments and returns the
// exit status.
func Execute() int {
	return execute(newRoot())
}

// execute closes the log file on every path; cobra skips post-run hooks
// when RunE fails.
func execute(cmd *cobra.Command, a *app) int {
	err := cmd.Execute()
	if cerr := a.close(); cerr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: closing log:", cerr)
	}
	if err != nil {
		if !errors.Is(err, errRejected) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		}
		return 1
	}
	return 0
}

// setup resolves configuration and builds the logger. Flags win over
// environment, environment over the config file.
func (a *app) setup(cmd *cobra.Command) error {
	if a.logger != nil {
		return nil
	}
	cfg, err := config.Load(a.opts.ConfigPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if a.opts.DataFile != "" {
		cfg.Inventory.DataFile = a.opts.DataFile
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = a.opts.LogFile
	}
	if a.opts.LogLevel != "" {
		cfg.Logging.Level = a.opts.LogLevel
	}
	a.cfg = cfg

	lopts := applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	}
	if a.opts.Verbose {
		lopts.Console = cmd.ErrOrStderr()
	}
	a.logger, a.closeLog = applog.New(lopts)
	applog.WithComponent(a.logger, "cli").Debug("start",
		slog.String("command", cmd.CommandPath()), slog.String("file", cfg.Inventory.DataFile))
	return nil
}

// inventory loads the inventory named by the configuration. A load failure
// is reported on stderr and the session continues with an empty inventory.
func (a *app) inventory(cmd *cobra.Command) (*storage.Inventory, error) {
	if err := a.setup(cmd); err != nil {
		return nil, err
	}
	if a.inv != nil {
		return a.inv, nil
	}
	inv := storage.NewInventory(a.cfg.Inventory.DataFile, a.logger)
	if err := inv.Load(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v. Starting with an empty inventory.\n", err)
	}
	a.inv = inv
	return inv, nil
}

func (a *app) close() error {
	if a.closeLog == nil {
		return nil
	}
	err := a.closeLog()
	a.closeLog = nil
	return err
}

// withInventory loads the inventory and runs fn under the crash handler, so
// a panic still leaves a report and a final save behind.
func (a *app) withInventory(cmd *cobra.Command, fn func(*storage.Inventory) error) error {
	inv, err := a.inventory(cmd)
	if err != nil {
		return err
	}
	defer recoverPanic(inv, a.logger)
	return fn(inv)
}

func (a *app) runMenu(cmd *cobra.Command) error {
	return a.withInventory(cmd, func(inv *storage.Inventory) error {
		return runMenu(inv, cmd.InOrStdin(), cmd.OutOrStdout(), a.logger)
	})
}

// runMenu drives the interactive loop over r and w until Exit or end of input.
func runMenu(inv *storage.Inventory, r io.Reader, w io.Writer, logger *slog.Logger) error {
	return newMenu(inv, r, w, logger).run()
}

func newMenuCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Run the interactive menu (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMenu(cmd)
		},
	}
}

