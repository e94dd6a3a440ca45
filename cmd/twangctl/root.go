// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "text" | "json"
	LogLevel   string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the twangctl root command. load builds the runtime
// each subcommand works against.
func NewRootCommand(load EnvLoader) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "twangctl",
		Short: "Run and inspect Twangwire content syncs",
		Long: `twangctl drives the Twangwire sync orchestrator from the command line.

Sources: videos (YouTube), chart (Apify), news (GNews).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.ConfigPath != "" {
				if err := os.Setenv(config.ConfigPathEnvVar, opts.ConfigPath); err != nil {
					return WrapExitError(ExitCommandError, "set config path", err)
				}
			}
			logging.Init(logging.Config{
				Level:  opts.LogLevel,
				Format: "console",
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (overrides CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewSyncCommand(opts, load))
	cmd.AddCommand(NewSyncAllCommand(opts, load))
	cmd.AddCommand(NewScheduleCommand(opts, load))
	cmd.AddCommand(NewHistoryCommand(opts, load))

	return cmd
}
