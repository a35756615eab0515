// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/replayrhythms/internal/replay"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one reconciliation pass over unsettled replays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnvironment(cmd.Context(), func(env *environment) error {
				size := batchSize
				if size <= 0 {
					size = env.batchSize
				}
				// The schedule is unused; RunOnce is called directly.
				poller := replay.NewPoller(env.store, env.reconciler, "@every 1m", size)

				start := time.Now()
				checked, err := poller.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successText(
					fmt.Sprintf("Checked %d replay(s) in %s", checked, time.Since(start).Round(time.Millisecond))))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Replays per pass (default: POLLER_BATCH_SIZE)")
	return cmd
}
