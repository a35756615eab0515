// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/replayrhythms/internal/models"
)

// UpsertSubscription inserts or fully replaces a subscription row keyed by the
// Stripe subscription id.
func (db *DB) UpsertSubscription(ctx context.Context, s *models.Subscription) error {
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO subscriptions (id, user_id, status, price_id, quantity, cancel_at_period_end,
			cancel_at, canceled_at, current_period_start, current_period_end, created_at, ended_at)
		VALUES (:id, :user_id, :status, :price_id, :quantity, :cancel_at_period_end,
			:cancel_at, :canceled_at, :current_period_start, :current_period_end, :created_at, :ended_at)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			status = EXCLUDED.status,
			price_id = EXCLUDED.price_id,
			quantity = EXCLUDED.quantity,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			cancel_at = EXCLUDED.cancel_at,
			canceled_at = EXCLUDED.canceled_at,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			ended_at = EXCLUDED.ended_at
	`, s)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// GetSubscription returns the subscription with the Stripe id or ErrNotFound.
func (db *DB) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	var s models.Subscription
	err := db.conn.GetContext(ctx, &s, `
		SELECT id, user_id, status, price_id, quantity, cancel_at_period_end, cancel_at,
			canceled_at, current_period_start, current_period_end, created_at, ended_at
		FROM subscriptions WHERE id = $1
	`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// EndSubscription records a deleted subscription.
func (db *DB) EndSubscription(ctx context.Context, id, status string, endedAt time.Time) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE subscriptions SET status = $2, ended_at = $3 WHERE id = $1
	`, id, status, endedAt)
	if err != nil {
		return fmt.Errorf("failed to end subscription: %w", err)
	}
	return requireAffected(res)
}
