// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRepairCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "repair <replay-id> [ballchasing-id]",
		Short: "Re-fetch a replay from ballchasing.com and apply its status",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			replayID := args[0]
			var ballchasingID string
			if len(args) == 2 {
				ballchasingID = args[1]
			}

			return ctx.withEnvironment(cmd.Context(), func(env *environment) error {
				report, err := env.reconciler.Repair(cmd.Context(), replayID, ballchasingID)
				if err != nil {
					return describeError(err)
				}

				out := cmd.OutOrStdout()
				rows := [][]string{
					{"Replay", report.ReplayID},
					{"Ballchasing ID", report.BallchasingID},
					{"ballchasing.com status", report.BallchasingStatus},
					{"Previous status", statusText(report.PreviousStatus)},
					{"Status", statusText(report.Status)},
					{"Updated", yesNo(report.Updated)},
				}
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))

				if report.Updated {
					fmt.Fprintln(out, successText(fmt.Sprintf("Replay %s is now %s", report.ReplayID, report.Status)))
				} else {
					fmt.Fprintln(out, dimText("ballchasing.com is still processing this replay; try again later"))
				}
				return nil
			})
		},
	}
}
