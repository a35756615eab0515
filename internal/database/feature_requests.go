// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/replayrhythms/internal/models"
)

const featureRequestColumns = `id, title, description, created_by, status, priority, votes_count,
	implementation_notes, estimated_effort, target_release, created_at, updated_at`

// ListFeatureRequests returns one page ranked by votes then recency, and the
// total number of matching rows.
func (db *DB) ListFeatureRequests(ctx context.Context, filter models.FeatureRequestFilter) ([]models.FeatureRequest, int, error) {
	var w whereBuilder
	w.eq("status", filter.Status)
	w.eq("priority", filter.Priority)
	where := w.clause()

	var total int
	if err := db.conn.GetContext(ctx, &total, `SELECT COUNT(*) FROM feature_requests`+where, w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count feature requests: %w", err)
	}

	page := w.page(filter.Limit, filter.Offset)
	items := []models.FeatureRequest{}
	query := `SELECT ` + featureRequestColumns + ` FROM feature_requests` + where +
		` ORDER BY votes_count DESC, created_at DESC` + page
	if err := db.conn.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list feature requests: %w", err)
	}
	return items, total, nil
}

// CreateFeatureRequest inserts a request with status considering, priority
// medium and no votes. A duplicate title returns ErrDuplicate.
func (db *DB) CreateFeatureRequest(ctx context.Context, fr *models.FeatureRequest) error {
	if fr.ID == "" {
		fr.ID = uuid.NewString()
	}
	fr.Status = models.FeatureStatusConsidering
	fr.Priority = models.FeaturePriorityMedium
	fr.VotesCount = 0
	now := db.now()
	fr.CreatedAt = now
	fr.UpdatedAt = now

	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO feature_requests (id, title, description, created_by, status, priority,
			votes_count, created_at, updated_at)
		VALUES (:id, :title, :description, :created_by, :status, :priority,
			:votes_count, :created_at, :updated_at)
	`, fr)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert feature request: %w", err)
	}
	return nil
}

// GetFeatureRequest returns a request or ErrNotFound. withVotes loads its votes.
func (db *DB) GetFeatureRequest(ctx context.Context, id string, withVotes bool) (*models.FeatureRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var fr models.FeatureRequest
	err := db.conn.GetContext(ctx, &fr, `SELECT `+featureRequestColumns+` FROM feature_requests WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err)
	}
	if withVotes {
		fr.Votes = []models.FeatureVote{}
		err := db.conn.SelectContext(ctx, &fr.Votes, `
			SELECT id, feature_request_id, user_id, created_at FROM feature_votes
			WHERE feature_request_id = $1
			ORDER BY created_at ASC
		`, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load votes: %w", err)
		}
	}
	return &fr, nil
}

// UpdateFeatureRequest applies the non-nil fields of u.
func (db *DB) UpdateFeatureRequest(ctx context.Context, id string, u models.FeatureRequestUpdate) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	var s setBuilder
	s.set("status", u.Status)
	s.set("priority", u.Priority)
	s.set("implementation_notes", u.ImplementationNotes)
	s.set("estimated_effort", u.EstimatedEffort)
	s.set("target_release", u.TargetRelease)

	query, args := s.build("feature_requests", db.now(), id)
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update feature request: %w", err)
	}
	return requireAffected(res)
}

// DeleteFeatureRequest removes a request; its votes cascade.
func (db *DB) DeleteFeatureRequest(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := db.conn.ExecContext(ctx, `DELETE FROM feature_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feature request: %w", err)
	}
	return requireAffected(res)
}

// AddVote records userID's vote and increments votes_count in one
// transaction. Returns ErrNotFound when the request does not exist and
// ErrDuplicate when the user already voted.
func (db *DB) AddVote(ctx context.Context, featureID, userID string) (*models.FeatureVote, int, error) {
	if _, err := uuid.Parse(featureID); err != nil {
		return nil, 0, ErrNotFound
	}
	vote := &models.FeatureVote{
		ID:               uuid.NewString(),
		FeatureRequestID: featureID,
		UserID:           userID,
		CreatedAt:        db.now(),
	}
	var count int

	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		// Row lock serializes concurrent votes on the same request.
		var id string
		if err := tx.GetContext(ctx, &id, `SELECT id FROM feature_requests WHERE id = $1 FOR UPDATE`, featureID); err != nil {
			return notFound(err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO feature_votes (id, feature_request_id, user_id, created_at)
			VALUES ($1, $2, $3, $4)
		`, vote.ID, vote.FeatureRequestID, vote.UserID, vote.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("failed to insert vote: %w", err)
		}

		return tx.GetContext(ctx, &count, `
			UPDATE feature_requests
			SET votes_count = votes_count + 1, updated_at = $2
			WHERE id = $1
			RETURNING votes_count
		`, featureID, vote.CreatedAt)
	})
	if err != nil {
		return nil, 0, err
	}
	return vote, count, nil
}

// RemoveVote deletes userID's vote and decrements votes_count (never below
// zero) in one transaction. Returns ErrNotFound when there is no vote.
func (db *DB) RemoveVote(ctx context.Context, featureID, userID string) (int, error) {
	if _, err := uuid.Parse(featureID); err != nil {
		return 0, ErrNotFound
	}
	var count int

	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM feature_votes WHERE feature_request_id = $1 AND user_id = $2
		`, featureID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete vote: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		return tx.GetContext(ctx, &count, `
			UPDATE feature_requests
			SET votes_count = GREATEST(votes_count - 1, 0), updated_at = $2
			WHERE id = $1
			RETURNING votes_count
		`, featureID, db.now())
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
