// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package metrics defines the Prometheus collectors exported on /metrics.
//
// Collectors are registered on the default registry through promauto at
// package init. Callers use the Record* helpers rather than touching the
// vectors directly so label sets stay consistent.
//
// Groups:
//   - api_*: HTTP request counts, latency and in-flight requests
//   - ballchasing_*: outbound calls to ballchasing.com
//   - replay_*: status transitions and check failures
//   - recommend_*: recommendation service proxy
//   - poller_*: background reconciliation runs
//   - circuit_breaker_*: breaker state per upstream
package metrics
