// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package models

// ReplayMetrics is the match summary derived from a ballchasing.com document.
type ReplayMetrics struct {
	Title           string      `json:"title"`
	MapName         string      `json:"map_name"`
	Duration        float64     `json:"duration"`
	Date            string      `json:"date"`
	Playlist        string      `json:"playlist"`
	Overtime        bool        `json:"overtime"`
	OvertimeSeconds float64     `json:"overtime_seconds"`
	Season          string      `json:"season"`
	Teams           MetricTeams `json:"teams"`
}

type MetricTeams struct {
	Blue   TeamMetrics `json:"blue"`
	Orange TeamMetrics `json:"orange"`
}

// TeamMetrics are the core totals of one side.
type TeamMetrics struct {
	Name               string          `json:"name"`
	Goals              float64         `json:"goals"`
	Shots              float64         `json:"shots"`
	Saves              float64         `json:"saves"`
	Assists            float64         `json:"assists"`
	Score              float64         `json:"score"`
	ShootingPercentage float64         `json:"shooting_percentage"`
	Players            []PlayerMetrics `json:"players"`
}

type PlayerMetrics struct {
	Name               string             `json:"name"`
	Platform           string             `json:"platform"`
	ID                 string             `json:"id"`
	MVP                bool               `json:"mvp"`
	CarName            string             `json:"car_name"`
	CarID              int64              `json:"car_id"`
	Score              float64            `json:"score"`
	Goals              float64            `json:"goals"`
	Assists            float64            `json:"assists"`
	Saves              float64            `json:"saves"`
	Shots              float64            `json:"shots"`
	ShootingPercentage float64            `json:"shooting_percentage"`
	Boost              BoostMetrics       `json:"boost"`
	Movement           MovementMetrics    `json:"movement"`
	Positioning        PositioningMetrics `json:"positioning"`
}

type BoostMetrics struct {
	AvgAmount            float64 `json:"avg_amount"`
	AmountCollected      float64 `json:"amount_collected"`
	AmountStolen         float64 `json:"amount_stolen"`
	TimeZeroBoostPercent float64 `json:"time_zero_boost_percent"`
	TimeFullBoostPercent float64 `json:"time_full_boost_percent"`
}

type MovementMetrics struct {
	AvgSpeed                   float64 `json:"avg_speed"`
	TotalDistance              float64 `json:"total_distance"`
	TimeSupersonicSpeedPercent float64 `json:"time_supersonic_speed_percent"`
}

type PositioningMetrics struct {
	TimeDefensiveThirdPercent float64 `json:"time_defensive_third_percent"`
	TimeNeutralThirdPercent   float64 `json:"time_neutral_third_percent"`
	TimeOffensiveThirdPercent float64 `json:"time_offensive_third_percent"`
	TimeBehindBallPercent     float64 `json:"time_behind_ball_percent"`
}
