// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package replay reconciles stored replay rows with ballchasing.com.
//
// # State Machine
//
//	uploaded ──> processing ──> ready
//	                 │    ▲        ▲
//	                 │    │        │
//	                 ▼    │        │
//	               failed  pending ┘
//
// A replay enters processing as soon as it is sent to ballchasing.com.
// Reconcile is called whenever a client views a replay and by the background
// Poller. It never contacts ballchasing.com for a replay younger than
// ProcessingGrace, nor more than once per CheckThrottle for a processing
// replay; last_checked_at is written before the call so concurrent viewers
// share the throttle.
//
// Transient check errors are counted in metrics.check_failures. After
// MaxCheckFailures consecutive errors the replay is marked failed.
//
// # Components
//
//   - Reconciler: the per-replay decision table (Reconcile, Check)
//   - Poller: cron-scheduled sweep over unsettled replays
//   - Repair: operator-driven re-fetch used by the fixreplay CLI
package replay
