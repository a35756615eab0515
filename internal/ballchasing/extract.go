// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package ballchasing

import (
	"github.com/tidwall/gjson"

	"github.com/tomtom215/replayrhythms/internal/models"
)

// teamColors are the ballchasing.com top-level team keys, in output order.
var teamColors = []struct {
	key         string
	defaultName string
}{
	{"blue", "Blue"},
	{"orange", "Orange"},
}

// ExtractMetrics reshapes a ballchasing.com replay document into the flat
// summary stored on the replay row. Missing values become zero or empty;
// team player lists are never nil.
func ExtractMetrics(raw []byte) models.ReplayMetrics {
	doc := gjson.ParseBytes(raw)

	m := models.ReplayMetrics{
		Title:           doc.Get("title").String(),
		MapName:         doc.Get("map_name").String(),
		Duration:        doc.Get("duration").Float(),
		Date:            doc.Get("date").String(),
		Playlist:        doc.Get("playlist_name").String(),
		Overtime:        doc.Get("overtime").Bool(),
		OvertimeSeconds: doc.Get("overtime_seconds").Float(),
		Season:          doc.Get("season").String(),
	}

	for _, tc := range teamColors {
		team := extractTeam(doc.Get(tc.key), tc.defaultName)
		if tc.key == "blue" {
			m.Teams.Blue = team
		} else {
			m.Teams.Orange = team
		}
	}
	return m
}

func extractTeam(team gjson.Result, defaultName string) models.TeamMetrics {
	name := team.Get("name").String()
	if name == "" {
		name = defaultName
	}
	core := team.Get("stats.core")

	t := models.TeamMetrics{
		Name:               name,
		Goals:              core.Get("goals").Float(),
		Shots:              core.Get("shots").Float(),
		Saves:              core.Get("saves").Float(),
		Assists:            core.Get("assists").Float(),
		Score:              core.Get("score").Float(),
		ShootingPercentage: core.Get("shooting_percentage").Float(),
		Players:            []models.PlayerMetrics{},
	}

	team.Get("players").ForEach(func(_, player gjson.Result) bool {
		t.Players = append(t.Players, extractPlayer(player))
		return true
	})
	return t
}

func extractPlayer(p gjson.Result) models.PlayerMetrics {
	stats := p.Get("stats")
	core := stats.Get("core")
	boost := stats.Get("boost")
	movement := stats.Get("movement")
	positioning := stats.Get("positioning")

	return models.PlayerMetrics{
		Name:               p.Get("name").String(),
		Platform:           p.Get("id.platform").String(),
		ID:                 p.Get("id.id").String(),
		MVP:                p.Get("mvp").Bool(),
		CarName:            p.Get("car_name").String(),
		CarID:              p.Get("car_id").Int(),
		Score:              core.Get("score").Float(),
		Goals:              core.Get("goals").Float(),
		Assists:            core.Get("assists").Float(),
		Saves:              core.Get("saves").Float(),
		Shots:              core.Get("shots").Float(),
		ShootingPercentage: core.Get("shooting_percentage").Float(),
		Boost: models.BoostMetrics{
			AvgAmount:            boost.Get("avg_amount").Float(),
			AmountCollected:      boost.Get("amount_collected").Float(),
			AmountStolen:         boost.Get("amount_stolen").Float(),
			TimeZeroBoostPercent: boost.Get("percent_zero_boost").Float(),
			TimeFullBoostPercent: boost.Get("percent_full_boost").Float(),
		},
		Movement: models.MovementMetrics{
			AvgSpeed:                   movement.Get("avg_speed").Float(),
			TotalDistance:              movement.Get("total_distance").Float(),
			TimeSupersonicSpeedPercent: movement.Get("percent_supersonic_speed").Float(),
		},
		Positioning: models.PositioningMetrics{
			TimeDefensiveThirdPercent: positioning.Get("percent_defensive_third").Float(),
			TimeNeutralThirdPercent:   positioning.Get("percent_neutral_third").Float(),
			TimeOffensiveThirdPercent: positioning.Get("percent_offensive_third").Float(),
			TimeBehindBallPercent:     positioning.Get("percent_behind_ball").Float(),
		},
	}
}

// ExtractMetricsMap is ExtractMetrics converted to the jsonb column type.
func ExtractMetricsMap(raw []byte) (models.JSONMap, error) {
	return models.ToJSONMap(ExtractMetrics(raw))
}
