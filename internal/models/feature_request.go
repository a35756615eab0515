// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package models

import "time"

const (
	FeatureStatusConsidering = "considering"
	FeaturePriorityMedium    = "medium"
)

// FeatureRequest is a row of feature_requests. VotesCount is denormalized
// from feature_votes and kept in step inside the vote transactions.
type FeatureRequest struct {
	ID                  string        `db:"id" json:"id"`
	Title               string        `db:"title" json:"title"`
	Description         string        `db:"description" json:"description"`
	CreatedBy           string        `db:"created_by" json:"created_by"`
	Status              string        `db:"status" json:"status"`
	Priority            string        `db:"priority" json:"priority"`
	VotesCount          int           `db:"votes_count" json:"votes_count"`
	ImplementationNotes *string       `db:"implementation_notes" json:"implementation_notes,omitempty"`
	EstimatedEffort     *string       `db:"estimated_effort" json:"estimated_effort,omitempty"`
	TargetRelease       *string       `db:"target_release" json:"target_release,omitempty"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
	Votes               []FeatureVote `db:"-" json:"votes,omitempty"`
}

type FeatureVote struct {
	ID               string    `db:"id" json:"id"`
	FeatureRequestID string    `db:"feature_request_id" json:"feature_request_id"`
	UserID           string    `db:"user_id" json:"user_id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type FeatureRequestFilter struct {
	Status   string
	Priority string
	Limit    int
	Offset   int
}

// FeatureRequestUpdate carries the admin-editable fields; nil leaves a column as is.
type FeatureRequestUpdate struct {
	Status              *string
	Priority            *string
	ImplementationNotes *string
	EstimatedEffort     *string
	TargetRelease       *string
}
