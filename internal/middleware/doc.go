// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

/*
Package middleware provides the infrastructure HTTP middleware shared by every
route: request id tracking and Prometheus instrumentation.

Both are chi-style func(http.Handler) http.Handler values:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

RequestID must run first so that log lines and error envelopes written by
later middleware carry the id.

PrometheusMetrics labels requests by chi route pattern ("/api/replay/{id}")
rather than the raw path, which keeps label cardinality bounded.
*/
package middleware
