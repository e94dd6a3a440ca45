// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/twangwire/internal/models"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions, load EnvLoader) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [source]",
		Short: "Show the latest attempt per source, or one source's attempt log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Limit < 0 {
				return NewExitError(ExitCommandError, "--limit must not be negative")
			}

			env, err := load(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer env.Close() //nolint:errcheck

			var attempts []models.SyncAttempt
			if len(args) == 0 {
				attempts, err = env.History.LatestHistory(cmd.Context())
			} else {
				attempts, err = env.History.AttemptLog(cmd.Context(), args[0], opts.Limit)
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "read history", err)
			}
			if attempts == nil {
				attempts = []models.SyncAttempt{}
			}

			return printer{opts.Format, cmd.OutOrStdout()}.print(attempts, func(w io.Writer) {
				if len(attempts) == 0 {
					fmt.Fprintln(w, "no recorded attempts")
					return
				}
				for _, a := range attempts {
					fmt.Fprintf(w, "%s  %-7s %-9s %-7s ins=%-4d skip=%-4d del=%-4d %s\n",
						a.StartedAt.Format(time.RFC3339), a.SourceID, a.TriggeredBy, a.Outcome,
						a.RecordsInserted, a.RecordsSkipped, a.RecordsDeleted, a.Message)
				}
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "attempts to show for a single source")
	return cmd
}
