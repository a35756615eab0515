// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package database is the Postgres data layer for ReplayRhythms.
//
// # Overview
//
// A single *DB wraps an sqlx handle over lib/pq. Queries are plain SQL with
// positional parameters; rows are scanned into the structs in internal/models
// via their db tags.
//
// Files:
//   - database.go: connection lifecycle and pool configuration
//   - migrations.go: embedded schema migrations (golang-migrate)
//   - errors.go: sentinel errors and pq error classification
//   - filter.go: WHERE clause construction for optional filters
//   - replays.go: replay rows and status transitions
//   - feedback.go: feedback, admin responses and quick feedback
//   - feature_requests.go: feature requests and transactional voting
//   - subscriptions.go: Stripe subscription mirror
//
// # Errors
//
// Lookups that match no row return ErrNotFound. Inserts that violate a
// unique constraint return ErrDuplicate. Both are matched with errors.Is.
//
// # Thread Safety
//
// DB is safe for concurrent use; the underlying pool handles connections.
package database
