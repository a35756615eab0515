// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/replayrhythms/internal/models"
)

const replayColumns = `id, user_id, file_name, storage_path, file_size, status, ballchasing_id,
	visibility, metrics, last_checked_at, created_at, updated_at`

// CreateReplay inserts a new replay row. ID, CreatedAt and UpdatedAt are
// assigned when empty.
func (db *DB) CreateReplay(ctx context.Context, r *models.Replay) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = models.ReplayStatusUploaded
	}
	if r.Visibility == "" {
		r.Visibility = models.VisibilityPublic
	}
	now := db.now()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO replays (id, user_id, file_name, storage_path, file_size, status,
			ballchasing_id, visibility, metrics, last_checked_at, created_at, updated_at)
		VALUES (:id, :user_id, :file_name, :storage_path, :file_size, :status,
			:ballchasing_id, :visibility, :metrics, :last_checked_at, :created_at, :updated_at)
	`, r)
	if err != nil {
		return fmt.Errorf("failed to insert replay: %w", err)
	}
	return nil
}

// GetReplay returns the replay with id or ErrNotFound.
func (db *DB) GetReplay(ctx context.Context, id string) (*models.Replay, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var r models.Replay
	err := db.conn.GetContext(ctx, &r, `SELECT `+replayColumns+` FROM replays WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// UpdateReplayStatus sets status and, when metrics is non-nil, replaces metrics.
func (db *DB) UpdateReplayStatus(ctx context.Context, id string, status models.ReplayStatus, metrics models.JSONMap) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE replays
		SET status = $2, metrics = COALESCE($3, metrics), updated_at = $4
		WHERE id = $1
	`, id, status, metrics, db.now())
	if err != nil {
		return fmt.Errorf("failed to update replay status: %w", err)
	}
	return requireAffected(res)
}

// UpdateReplayMetrics replaces metrics without touching status.
func (db *DB) UpdateReplayMetrics(ctx context.Context, id string, metrics models.JSONMap) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE replays SET metrics = $2, updated_at = $3 WHERE id = $1
	`, id, metrics, db.now())
	if err != nil {
		return fmt.Errorf("failed to update replay metrics: %w", err)
	}
	return requireAffected(res)
}

// SetBallchasingID records the ballchasing.com id of an uploaded replay.
func (db *DB) SetBallchasingID(ctx context.Context, id, ballchasingID string) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE replays SET ballchasing_id = $2, updated_at = $3 WHERE id = $1
	`, id, ballchasingID, db.now())
	if err != nil {
		return fmt.Errorf("failed to set ballchasing id: %w", err)
	}
	return requireAffected(res)
}

// TouchReplayChecked records when ballchasing.com was last asked about a replay.
func (db *DB) TouchReplayChecked(ctx context.Context, id string, at time.Time) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE replays SET last_checked_at = $2 WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update last_checked_at: %w", err)
	}
	return requireAffected(res)
}

// SetReplayVisibility changes who may view a replay.
func (db *DB) SetReplayVisibility(ctx context.Context, id, visibility string) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE replays SET visibility = $2, updated_at = $3 WHERE id = $1
	`, id, visibility, db.now())
	if err != nil {
		return fmt.Errorf("failed to update visibility: %w", err)
	}
	return requireAffected(res)
}

// ListUserReplays returns a user's replays, newest first.
func (db *DB) ListUserReplays(ctx context.Context, userID string) ([]models.Replay, error) {
	replays := []models.Replay{}
	err := db.conn.SelectContext(ctx, &replays, `
		SELECT `+replayColumns+` FROM replays
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list replays: %w", err)
	}
	return replays, nil
}

// ListShowcaseReplays returns public, ready replays, newest first.
func (db *DB) ListShowcaseReplays(ctx context.Context, limit int) ([]models.Replay, error) {
	if limit <= 0 {
		limit = 10
	}
	replays := []models.Replay{}
	err := db.conn.SelectContext(ctx, &replays, `
		SELECT `+replayColumns+` FROM replays
		WHERE visibility = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, models.VisibilityPublic, models.ReplayStatusReady, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list showcase replays: %w", err)
	}
	return replays, nil
}

// ListUnsettledReplays returns replays in processing or pending that were not
// checked since checkedBefore, oldest first. Pending rows without a
// ballchasing id are skipped: no status check can settle them.
func (db *DB) ListUnsettledReplays(ctx context.Context, checkedBefore time.Time, limit int) ([]models.Replay, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	replays := []models.Replay{}
	err := db.conn.SelectContext(ctx, &replays, `
		SELECT `+replayColumns+` FROM replays
		WHERE status IN ($1, $2)
		  AND NOT (status = $2 AND ballchasing_id IS NULL)
		  AND (last_checked_at IS NULL OR last_checked_at < $3)
		ORDER BY created_at ASC
		LIMIT $4
	`, models.ReplayStatusProcessing, models.ReplayStatusPending, checkedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled replays: %w", err)
	}
	return replays, nil
}
