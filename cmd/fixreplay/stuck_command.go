// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/replayrhythms/internal/models"
)

func newStuckCommand(ctx *commandContext) *cobra.Command {
	var (
		olderThan time.Duration
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "stuck",
		Short: "List processing or pending replays not checked recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}
			return ctx.withEnvironment(cmd.Context(), func(env *environment) error {
				now := time.Now()
				replays, err := env.store.ListUnsettledReplays(cmd.Context(), now.Add(-olderThan), limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(replays) == 0 {
					fmt.Fprintln(out, successText("No stuck replays"))
					return nil
				}

				rows := make([][]string, 0, len(replays))
				for i := range replays {
					rows = append(rows, stuckRow(&replays[i], now))
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Replay", "Status", "Ballchasing ID", "Age", "Last checked", "Failures"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				fmt.Fprintf(out, "%d replay(s)\n", len(replays))
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 10*time.Minute, "Only replays not checked within this window")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows to show")
	return cmd
}

func stuckRow(r *models.Replay, now time.Time) []string {
	checked := dimText("never")
	if r.LastCheckedAt != nil {
		checked = humanDuration(now.Sub(*r.LastCheckedAt)) + " ago"
	}
	bcID := r.BallchasingRef()
	if bcID == "" {
		bcID = dimText("none")
	}
	return []string{
		r.ID,
		statusText(r.Status),
		bcID,
		humanDuration(now.Sub(r.CreatedAt)),
		checked,
		strconv.Itoa(r.CheckFailures()),
	}
}

// humanDuration renders d rounded to its largest sensible unit.
func humanDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
