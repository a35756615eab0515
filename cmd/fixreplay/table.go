// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package main

import (
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tomtom215/replayrhythms/internal/models"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// statusText colours a replay status for terminal output.
func statusText(status models.ReplayStatus) string {
	s := string(status)
	switch status {
	case models.ReplayStatusReady:
		return color.GreenString(s)
	case models.ReplayStatusFailed:
		return color.RedString(s)
	case models.ReplayStatusProcessing, models.ReplayStatusPending:
		return color.YellowString(s)
	default:
		return s
	}
}

func successText(s string) string {
	return color.New(color.FgGreen, color.Bold).Sprint(s)
}

func errorText(s string) string {
	return color.New(color.FgRed, color.Bold).Sprint(s)
}

func dimText(s string) string {
	return color.New(color.Faint).Sprint(s)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
