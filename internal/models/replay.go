// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package models

import "time"

// ReplayStatus is the processing state of an uploaded replay.
//
//	uploaded -> processing -> (pending) -> ready | failed
type ReplayStatus string

const (
	ReplayStatusUploaded   ReplayStatus = "uploaded"
	ReplayStatusProcessing ReplayStatus = "processing"
	ReplayStatusPending    ReplayStatus = "pending"
	ReplayStatusReady      ReplayStatus = "ready"
	ReplayStatusFailed     ReplayStatus = "failed"
)

// Settled reports whether no further status checks are needed.
func (s ReplayStatus) Settled() bool {
	return s == ReplayStatusReady || s == ReplayStatusFailed
}

// Visibility values accepted by ballchasing.com uploads.
const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
)

// Keys used inside Replay.Metrics while a replay is not ready.
const (
	MetricsKeyError          = "error"
	MetricsKeyFailureReason  = "failure_reason"
	MetricsKeyCheckFailures  = "check_failures"
	MetricsKeyLastCheckError = "last_check_error"
)

// Replay is a row of the replays table.
type Replay struct {
	ID            string       `db:"id" json:"id"`
	UserID        string       `db:"user_id" json:"user_id"`
	FileName      string       `db:"file_name" json:"file_name"`
	StoragePath   string       `db:"storage_path" json:"storage_path"`
	FileSize      int64        `db:"file_size" json:"file_size"`
	Status        ReplayStatus `db:"status" json:"status"`
	BallchasingID *string      `db:"ballchasing_id" json:"ballchasing_id,omitempty"`
	Visibility    string       `db:"visibility" json:"visibility"`
	// Metrics holds ReplayMetrics once ready, or error bookkeeping
	// (error, failure_reason, check_failures, last_check_error) before that.
	Metrics       JSONMap    `db:"metrics" json:"metrics,omitempty"`
	LastCheckedAt *time.Time `db:"last_checked_at" json:"last_checked_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// BallchasingRef returns the ballchasing id or "".
func (r *Replay) BallchasingRef() string {
	if r.BallchasingID == nil {
		return ""
	}
	return *r.BallchasingID
}

// IsPublic reports whether anyone may view the replay.
func (r *Replay) IsPublic() bool {
	return r.Visibility == VisibilityPublic
}

// CheckFailures returns the consecutive status check failures recorded in metrics.
func (r *Replay) CheckFailures() int {
	return r.Metrics.Int(MetricsKeyCheckFailures)
}

// ReplaySummary is the client-facing view of a replay.
type ReplaySummary struct {
	ID            string    `json:"id"`
	FileName      string    `json:"fileName"`
	BallchasingID string    `json:"ballchasingId,omitempty"`
	Visibility    string    `json:"visibility"`
	CreatedAt     time.Time `json:"createdAt"`
	Metrics       JSONMap   `json:"metrics,omitempty"`
}

// Summary builds the client view; metrics are only exposed once ready.
func (r *Replay) Summary() ReplaySummary {
	s := ReplaySummary{
		ID:            r.ID,
		FileName:      r.FileName,
		BallchasingID: r.BallchasingRef(),
		Visibility:    r.Visibility,
		CreatedAt:     r.CreatedAt,
	}
	if r.Status == ReplayStatusReady {
		s.Metrics = r.Metrics
	}
	return s
}
