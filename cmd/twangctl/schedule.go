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

	"github.com/tomtom215/twangwire/internal/schedule"
)

// ScheduleOptions holds flags for the schedule command.
type ScheduleOptions struct {
	*RootOptions
	At string
}

// schedulePreview mirrors the server's preview body.
type schedulePreview struct {
	SourceID string            `json:"sourceId"`
	Policy   string            `json:"policy"`
	At       time.Time         `json:"at"`
	Decision schedule.Decision `json:"decision"`
}

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions, load EnvLoader) *cobra.Command {
	opts := &ScheduleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schedule <source>",
		Short: "Show whether a source is due and when it is next eligible",
		Long: `Evaluate a source's schedule without running it. No store is opened.

Example:
  twangctl schedule chart --at 2026-03-08T12:00:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := load(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer env.Close() //nolint:errcheck

			src, err := env.Registry.Get(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "schedule", err)
			}

			at := env.Now()
			if opts.At != "" {
				at, err = time.Parse(time.RFC3339, opts.At)
				if err != nil {
					return WrapExitError(ExitCommandError, "--at must be RFC3339", err)
				}
			}

			preview := schedulePreview{
				SourceID: args[0],
				Policy:   src.Policy.String(),
				At:       at.UTC(),
				Decision: schedule.Evaluate(src.Policy, at),
			}
			return printer{opts.Format, cmd.OutOrStdout()}.print(preview, func(w io.Writer) {
				d := preview.Decision
				fmt.Fprintf(w, "source:    %s (%s)\n", preview.SourceID, preview.Policy)
				fmt.Fprintf(w, "at:        %s\n", preview.At.Format(time.RFC3339))
				fmt.Fprintf(w, "local:     %s %s (dst=%t)\n", d.LocalTime.Format("Mon 2006-01-02 15:04"), d.Timezone, d.DaylightSaving)
				fmt.Fprintf(w, "due:       %t\n", d.Due)
				fmt.Fprintf(w, "next sync: %s\n", d.NextEligible.Format(time.RFC3339))
				if d.Reason != "" {
					fmt.Fprintf(w, "reason:    %s\n", d.Reason)
				}
			})
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "instant to evaluate (RFC3339, default now)")
	return cmd
}
