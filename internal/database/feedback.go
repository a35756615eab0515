// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tomtom215/replayrhythms/internal/models"
)

const feedbackColumns = `id, user_id, type, category, message, rating, context, status, priority,
	internal_notes, created_at, updated_at`

const feedbackResponseColumns = `id, feedback_id, admin_user_id, response_text, response_type, created_at`

// CreateFeedback inserts feedback with status open and priority medium unless set.
func (db *DB) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Status == "" {
		f.Status = models.FeedbackStatusOpen
	}
	if f.Priority == "" {
		f.Priority = models.FeedbackPriorityMedium
	}
	if f.Context == nil {
		f.Context = models.JSONMap{}
	}
	now := db.now()
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO feedback (id, user_id, type, category, message, rating, context,
			status, priority, created_at, updated_at)
		VALUES (:id, :user_id, :type, :category, :message, :rating, :context,
			:status, :priority, :created_at, :updated_at)
	`, f)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// ListUserFeedback returns a user's own feedback, newest first.
func (db *DB) ListUserFeedback(ctx context.Context, userID string) ([]models.Feedback, error) {
	items := []models.Feedback{}
	err := db.conn.SelectContext(ctx, &items, `
		SELECT `+feedbackColumns+` FROM feedback
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, nil
}

// ListFeedback returns one page of feedback matching filter, newest first,
// with admin responses attached, plus the total number of matching rows.
func (db *DB) ListFeedback(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, int, error) {
	var w whereBuilder
	w.eq("type", filter.Type)
	w.eq("status", filter.Status)
	w.eq("priority", filter.Priority)
	w.eq("category", filter.Category)
	where := w.clause()

	var total int
	if err := db.conn.GetContext(ctx, &total, `SELECT COUNT(*) FROM feedback`+where, w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count feedback: %w", err)
	}

	page := w.page(filter.Limit, filter.Offset)
	items := []models.Feedback{}
	query := `SELECT ` + feedbackColumns + ` FROM feedback` + where + ` ORDER BY created_at DESC` + page
	if err := db.conn.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}

	if err := db.attachResponses(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// attachResponses loads responses for all items with a single query.
func (db *DB) attachResponses(ctx context.Context, items []models.Feedback) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	index := make(map[string]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
		index[items[i].ID] = i
		items[i].Responses = []models.FeedbackResponse{}
	}

	var responses []models.FeedbackResponse
	err := db.conn.SelectContext(ctx, &responses, `
		SELECT `+feedbackResponseColumns+` FROM feedback_responses
		WHERE feedback_id = ANY($1)
		ORDER BY created_at ASC
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load feedback responses: %w", err)
	}
	for _, r := range responses {
		if i, ok := index[r.FeedbackID]; ok {
			items[i].Responses = append(items[i].Responses, r)
		}
	}
	return nil
}

// GetFeedback returns feedback with its responses or ErrNotFound.
func (db *DB) GetFeedback(ctx context.Context, id string) (*models.Feedback, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var f models.Feedback
	if err := db.conn.GetContext(ctx, &f, `SELECT `+feedbackColumns+` FROM feedback WHERE id = $1`, id); err != nil {
		return nil, notFound(err)
	}
	items := []models.Feedback{f}
	if err := db.attachResponses(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// UpdateFeedback applies the non-nil fields of u.
func (db *DB) UpdateFeedback(ctx context.Context, id string, u models.FeedbackUpdate) error {
	var s setBuilder
	s.set("status", u.Status)
	s.set("priority", u.Priority)
	s.set("internal_notes", u.InternalNotes)

	query, args := s.build("feedback", db.now(), id)
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	return requireAffected(res)
}

// AddFeedbackResponse records an admin reply. A missing feedback row returns ErrNotFound.
func (db *DB) AddFeedbackResponse(ctx context.Context, r *models.FeedbackResponse) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.ResponseType == "" {
		r.ResponseType = models.FeedbackResponseComment
	}
	r.CreatedAt = db.now()

	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO feedback_responses (id, feedback_id, admin_user_id, response_text, response_type, created_at)
		VALUES (:id, :feedback_id, :admin_user_id, :response_text, :response_type, :created_at)
	`, r)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to insert feedback response: %w", err)
	}
	return nil
}

// CreateQuickFeedback inserts a quick rating.
func (db *DB) CreateQuickFeedback(ctx context.Context, q *models.QuickFeedback) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.CreatedAt = db.now()

	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO quick_feedback (id, user_id, context, rating, page_url, session_id, created_at)
		VALUES (:id, :user_id, :context, :rating, :page_url, :session_id, :created_at)
	`, q)
	if err != nil {
		return fmt.Errorf("failed to insert quick feedback: %w", err)
	}
	return nil
}

// ListQuickFeedback returns quick ratings filtered by context and session, newest first.
func (db *DB) ListQuickFeedback(ctx context.Context, feedbackContext, sessionID string, limit int) ([]models.QuickFeedback, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	var w whereBuilder
	w.eq("context", feedbackContext)
	w.eq("session_id", sessionID)
	w.args = append(w.args, limit)

	items := []models.QuickFeedback{}
	query := fmt.Sprintf(`SELECT id, user_id, context, rating, page_url, session_id, created_at
		FROM quick_feedback%s ORDER BY created_at DESC LIMIT $%d`, w.clause(), len(w.args))
	if err := db.conn.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to list quick feedback: %w", err)
	}
	return items, nil
}
