// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package models

import "time"

// Subscription mirrors a Stripe subscription for one user.
type Subscription struct {
	ID                 string     `db:"id" json:"id"`
	UserID             string     `db:"user_id" json:"user_id"`
	Status             string     `db:"status" json:"status"`
	PriceID            *string    `db:"price_id" json:"price_id"`
	Quantity           *int64     `db:"quantity" json:"quantity"`
	CancelAtPeriodEnd  bool       `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	CancelAt           *time.Time `db:"cancel_at" json:"cancel_at"`
	CanceledAt         *time.Time `db:"canceled_at" json:"canceled_at"`
	CurrentPeriodStart *time.Time `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `db:"current_period_end" json:"current_period_end"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	EndedAt            *time.Time `db:"ended_at" json:"ended_at"`
}
