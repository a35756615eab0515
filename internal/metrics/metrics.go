// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// ballchasing.com Metrics
	BallchasingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ballchasing_requests_total",
			Help: "Total number of ballchasing.com API calls",
		},
		[]string{"operation", "status_code"}, // status_code "error" for transport failures
	)

	BallchasingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ballchasing_request_duration_seconds",
			Help:    "Duration of ballchasing.com API calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	BallchasingRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ballchasing_rate_limited_total",
			Help: "Total number of HTTP 429 responses from ballchasing.com",
		},
	)

	// Replay Lifecycle Metrics
	ReplayStatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replay_status_transitions_total",
			Help: "Total number of replay status changes written to the database",
		},
		[]string{"to_status", "source"}, // source: "upload", "request", "poller", "repair"
	)

	ReplayCheckFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "replay_check_failures_total",
			Help: "Total number of failed ballchasing.com status checks",
		},
	)

	ReplayUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "replay_upload_bytes",
			Help:    "Size of uploaded replay files in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 10), // 64KiB .. 32MiB
		},
	)

	// Recommendation Service Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation service calls",
		},
		[]string{"endpoint", "result"}, // result: "success", "upstream_error", "timeout", "unavailable", "error"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_request_duration_seconds",
			Help:    "Duration of recommendation service calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// Poller Metrics
	PollerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poller_runs_total",
			Help: "Total number of reconciliation passes",
		},
		[]string{"result"}, // "success", "error"
	)

	PollerReplaysChecked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poller_replays_checked_total",
			Help: "Total number of replays reconciled by the poller",
		},
	)

	PollerLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poller_last_run_timestamp",
			Help: "Unix timestamp of the last completed reconciliation pass",
		},
	)

	PollerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poller_run_duration_seconds",
			Help:    "Duration of a reconciliation pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBallchasingCall records one outbound ballchasing.com call.
// statusCode 0 means the request never got a response.
func RecordBallchasingCall(operation string, statusCode int, duration time.Duration) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	BallchasingRequests.WithLabelValues(operation, code).Inc()
	BallchasingDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordReplayTransition records a status write for a replay.
func RecordReplayTransition(toStatus, source string) {
	ReplayStatusTransitions.WithLabelValues(toStatus, source).Inc()
}

// RecordRecommendRequest records one recommendation proxy call.
func RecordRecommendRequest(endpoint, result string, duration time.Duration) {
	RecommendRequests.WithLabelValues(endpoint, result).Inc()
	RecommendDuration.Observe(duration.Seconds())
}

// RecordPollerRun records a completed reconciliation pass.
func RecordPollerRun(checked int, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	PollerRuns.WithLabelValues(result).Inc()
	PollerReplaysChecked.Add(float64(checked))
	PollerDuration.Observe(duration.Seconds())
	if err == nil {
		PollerLastRun.SetToCurrentTime()
	}
}
