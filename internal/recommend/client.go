// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package recommend proxies music recommendation requests to the external
// Python recommendation service.
//
// The service owns the model. This package only forwards requests, maps
// transport failures to sentinel errors and guards the upstream with a
// circuit breaker.
package recommend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/replayrhythms/internal/breaker"
	"github.com/tomtom215/replayrhythms/internal/config"
	"github.com/tomtom215/replayrhythms/internal/metrics"
)

// DefaultTopN is used when a request does not specify top_n.
const DefaultTopN = 5

const maxErrorBodySize = 64 * 1024

var (
	// ErrNotConfigured is returned when PYTHON_API_URL is not set.
	ErrNotConfigured = errors.New("recommendation service is not configured")

	// ErrTimeout is returned when the upstream does not answer in time.
	ErrTimeout = errors.New("recommendation service timed out")

	// ErrUnavailable is returned when the upstream cannot be reached
	// (connection refused, DNS failure) or the circuit is open.
	ErrUnavailable = errors.New("unable to connect to recommendation service")
)

// UpstreamError is a non-2xx response from the recommendation service.
type UpstreamError struct {
	StatusCode int
	StatusText string
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API request failed: %d %s", e.StatusCode, e.StatusText)
}

// Request is the body forwarded to POST /recommend.
type Request struct {
	PlayerID   string          `json:"player_id"`
	ReplayData json.RawMessage `json:"replay_data"`
	TopN       int             `json:"top_n"`
}

// Client calls the recommendation service.
type Client struct {
	baseURL string
	client  *http.Client
	cb      *breaker.Breaker
}

// NewClient creates a client. An empty cfg.URL yields a client whose every
// call returns ErrNotConfigured.
func NewClient(cfg *config.RecommendConfig) *Client {
	return newClient(cfg, breaker.Settings{})
}

func newClient(cfg *config.RecommendConfig, s breaker.Settings) *Client {
	s.IsSuccessful = isHealthy
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		cb:      breaker.New("recommend-api", s),
	}
}

// Configured reports whether an upstream URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Recommend forwards req to POST {base}/recommend and returns the upstream
// JSON unchanged.
func (c *Client) Recommend(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.TopN <= 0 {
		req.TopN = DefaultTopN
	}
	if len(req.ReplayData) == 0 {
		req.ReplayData = json.RawMessage("null")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recommendation request: %w", err)
	}
	return c.call(ctx, "recommend", func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recommend", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	})
}

// Test forwards to GET {base}/recommend/test, the service's sample endpoint.
func (c *Client) Test(ctx context.Context, playerID string, topN int) (json.RawMessage, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	q := url.Values{}
	if playerID != "" {
		q.Set("player_id", playerID)
	}
	q.Set("top_n", strconv.Itoa(topN))
	return c.call(ctx, "recommend_test", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/recommend/test?"+q.Encode(), http.NoBody)
	})
}

// State returns the circuit breaker state.
func (c *Client) State() string {
	return c.cb.State()
}

func (c *Client) call(ctx context.Context, endpoint string, newRequest func() (*http.Request, error)) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	start := time.Now()
	out, err := breaker.Execute(c.cb, func() (json.RawMessage, error) {
		req, err := newRequest()
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		return c.do(req)
	})
	if errors.Is(err, breaker.ErrOpen) {
		err = fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	metrics.RecordRecommendRequest(endpoint, resultLabel(err), time.Since(start))
	return out, err
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode recommendation response: %w", err)
	}
	return raw, nil
}

// classifyTransportError maps client errors onto ErrTimeout and ErrUnavailable.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return fmt.Errorf("recommendation request failed: %w", err)
}

// isHealthy counts client errors and cancellations as successes so that bad
// input never opens the circuit.
func isHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode < 500
	}
	return false
}

func resultLabel(err error) string {
	var ue *UpstreamError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.As(err, &ue):
		return "upstream_" + strconv.Itoa(ue.StatusCode)
	default:
		return "error"
	}
}
