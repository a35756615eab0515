// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package ballchasing

import (
	"context"
	"errors"

	"github.com/tomtom215/replayrhythms/internal/breaker"
)

// ErrCircuitOpen is returned immediately while ballchasing.com is considered down.
var ErrCircuitOpen = breaker.ErrOpen

// API is the ballchasing.com surface used by the rest of the application.
type API interface {
	Upload(ctx context.Context, fileName string, content []byte, visibility string) (*UploadResult, error)
	GetReplay(ctx context.Context, id string) (*Replay, error)
}

var (
	_ API = (*Client)(nil)
	_ API = (*CircuitBreakerClient)(nil)
)

// CircuitBreakerClient wraps Client with a circuit breaker. Unknown replay
// ids and a missing API key do not count as upstream failures.
type CircuitBreakerClient struct {
	client API
	cb     *breaker.Breaker
}

// NewCircuitBreakerClient wraps client. Defaults: opens after a 60% failure
// rate over at least 10 requests, probes again after 2 minutes.
func NewCircuitBreakerClient(client API) *CircuitBreakerClient {
	return newCircuitBreakerClient(client, breaker.Settings{})
}

func newCircuitBreakerClient(client API, s breaker.Settings) *CircuitBreakerClient {
	s.IsSuccessful = isHealthy
	return &CircuitBreakerClient{
		client: client,
		cb:     breaker.New("ballchasing-api", s),
	}
}

func isHealthy(err error) bool {
	return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled)
}

// Upload sends a replay with circuit breaker protection.
func (c *CircuitBreakerClient) Upload(ctx context.Context, fileName string, content []byte, visibility string) (*UploadResult, error) {
	return breaker.Execute(c.cb, func() (*UploadResult, error) {
		return c.client.Upload(ctx, fileName, content, visibility)
	})
}

// GetReplay fetches a replay with circuit breaker protection.
func (c *CircuitBreakerClient) GetReplay(ctx context.Context, id string) (*Replay, error) {
	return breaker.Execute(c.cb, func() (*Replay, error) {
		return c.client.GetReplay(ctx, id)
	})
}

// State reports the breaker state for health output.
func (c *CircuitBreakerClient) State() string {
	return c.cb.State()
}
