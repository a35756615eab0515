// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package models

import "time"

// Feedback lifecycle defaults.
const (
	FeedbackStatusOpen      = "open"
	FeedbackPriorityMedium  = "medium"
	FeedbackResponseComment = "comment"
)

// Feedback is a row of the feedback table.
type Feedback struct {
	ID            string             `db:"id" json:"id"`
	UserID        string             `db:"user_id" json:"user_id"`
	Type          string             `db:"type" json:"type"`
	Category      *string            `db:"category" json:"category"`
	Message       string             `db:"message" json:"message"`
	Rating        *int               `db:"rating" json:"rating"`
	Context       JSONMap            `db:"context" json:"context"`
	Status        string             `db:"status" json:"status"`
	Priority      string             `db:"priority" json:"priority"`
	InternalNotes *string            `db:"internal_notes" json:"internal_notes,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
	Responses     []FeedbackResponse `db:"-" json:"responses,omitempty"`
}

// FeedbackResponse is an admin reply attached to feedback.
type FeedbackResponse struct {
	ID           string    `db:"id" json:"id"`
	FeedbackID   string    `db:"feedback_id" json:"feedback_id"`
	AdminUserID  string    `db:"admin_user_id" json:"admin_user_id"`
	ResponseText string    `db:"response_text" json:"response_text"`
	ResponseType string    `db:"response_type" json:"response_type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// FeedbackFilter narrows the admin feedback listing. Empty fields match all.
type FeedbackFilter struct {
	Type     string
	Status   string
	Priority string
	Category string
	Limit    int
	Offset   int
}

// FeedbackUpdate carries the admin-editable fields; nil leaves a column as is.
type FeedbackUpdate struct {
	Status        *string
	Priority      *string
	InternalNotes *string
}

// QuickFeedback is a one-tap rating of a page or widget.
type QuickFeedback struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id"`
	Context   string    `db:"context" json:"context"`
	Rating    string    `db:"rating" json:"rating"`
	PageURL   *string   `db:"page_url" json:"page_url"`
	SessionID string    `db:"session_id" json:"session_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
