// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fixreplay",
		Short:         "Inspect and repair ReplayRhythms replay statuses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if ctx.noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&ctx.noColor, "no-color", false, "Disable coloured output")
	rootCmd.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(newRepairCommand(ctx))
	rootCmd.AddCommand(newStuckCommand(ctx))
	rootCmd.AddCommand(newSweepCommand(ctx))

	return rootCmd
}
