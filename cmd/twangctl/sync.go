// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/twangwire/internal/models"
	"github.com/tomtom215/twangwire/internal/sync"
)

// SyncOptions holds flags for sync and sync-all.
type SyncOptions struct {
	*RootOptions
	Manual bool
	Params map[string]string
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions, load EnvLoader) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync <source>",
		Short: "Run one sync attempt for a source",
		Long: `Run one sync attempt for a source.

Without --manual the attempt is automated and is skipped when the source is
not due; the next eligible time is printed instead.

Example:
  twangctl sync news
  twangctl sync videos --manual --param channel_id=UCxxxx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := load(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer env.Close() //nolint:errcheck

			res := env.Runner.Run(cmd.Context(), sync.Request{
				Automated: !opts.Manual,
				SourceID:  args[0],
				Params:    opts.Params,
			})
			if errors.Is(res.Err, models.ErrUnknownSource) {
				return WrapExitError(ExitCommandError, "sync", res.Err)
			}
			return reportResults(printer{opts.Format, cmd.OutOrStdout()}, res)
		},
	}

	addSyncFlags(cmd, opts)
	return cmd
}

// NewSyncAllCommand creates the sync-all command.
func NewSyncAllCommand(rootOpts *RootOptions, load EnvLoader) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync-all",
		Short: "Run one sync attempt for every enabled source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := load(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer env.Close() //nolint:errcheck

			results := env.Runner.RunAll(cmd.Context(), !opts.Manual, opts.Params)
			return reportResults(printer{opts.Format, cmd.OutOrStdout()}, results...)
		},
	}

	addSyncFlags(cmd, opts)
	return cmd
}

func addSyncFlags(cmd *cobra.Command, opts *SyncOptions) {
	cmd.Flags().BoolVar(&opts.Manual, "manual", false, "bypass the schedule")
	cmd.Flags().StringToStringVar(&opts.Params, "param", nil, "adapter parameter key=value (repeatable)")
}

// reportResults prints one line (or JSON object) per result and returns an
// ExitFailure error when any attempt failed.
func reportResults(p printer, results ...*sync.Result) error {
	responses := make([]models.SyncResponse, 0, len(results))
	failed := 0
	for _, res := range results {
		responses = append(responses, res.Response())
		if !res.Success() && !res.Skipped() {
			failed++
		}
	}

	var body any = responses
	if len(responses) == 1 {
		body = responses[0]
	}
	err := p.print(body, func(w io.Writer) {
		for _, r := range responses {
			writeResponseLine(w, r)
		}
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "write output", err)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d sync attempts failed", failed, len(results)))
	}
	return nil
}

func writeResponseLine(w io.Writer, r models.SyncResponse) {
	switch {
	case r.Skipped:
		next := "unknown"
		if r.NextSync != nil {
			next = r.NextSync.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%-7s skipped  %s (next %s)\n", r.SourceID, r.Message, next)
	case r.Success:
		s := r.SyncResult
		fmt.Fprintf(w, "%-7s ok       %s [fetched=%d inserted=%d skipped=%d deleted=%d]\n",
			r.SourceID, r.Message, s.RecordsFetched, s.RecordsInserted, s.RecordsSkipped, s.RecordsDeleted)
	default:
		fmt.Fprintf(w, "%-7s FAILED   %s: %s\n", r.SourceID, r.Message, r.Error)
	}
}
