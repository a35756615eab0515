// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package ballchasing is a client for the ballchasing.com replay API.
//
// ballchasing.com parses uploaded .replay files asynchronously. Upload returns
// an id immediately; GetReplay reports "pending" until parsing finishes, then
// "ok" with the full statistics document, or "failed".
//
// Features:
//   - Client-side rate limiting (golang.org/x/time/rate), since the API
//     enforces per-key limits
//   - Automatic retry on HTTP 429 with exponential backoff, honoring Retry-After
//   - Circuit breaker wrapper (CircuitBreakerClient)
//   - ExtractMetrics for reshaping the statistics document
package ballchasing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/tomtom215/replayrhythms/internal/config"
	"github.com/tomtom215/replayrhythms/internal/metrics"
)

// Replay processing states reported by ballchasing.com.
const (
	StatusOK      = "ok"
	StatusPending = "pending"
	StatusFailed  = "failed"
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("Ballchasing API key not configured") //nolint:staticcheck // user-facing message

	// ErrNotFound is returned when ballchasing.com has no replay with the id.
	ErrNotFound = errors.New("replay not found on ballchasing.com")

	// ErrRateLimited is returned when retries on HTTP 429 are exhausted.
	ErrRateLimited = errors.New("ballchasing.com rate limit exceeded")
)

// maxErrorBodySize limits how much of an error response is read.
const maxErrorBodySize = 64 * 1024

// Replay is a ballchasing.com replay document.
type Replay struct {
	ID     string
	Status string
	// Raw is the full JSON document, passed to ExtractMetrics once Status is "ok".
	Raw []byte
}

// UploadResult is the outcome of Upload.
type UploadResult struct {
	ID string
	// Duplicate is true when ballchasing.com already had this file (HTTP 409);
	// ID then refers to the existing replay.
	Duplicate bool
	Location  string
}

// HTTPError is a non-success response from ballchasing.com.
type HTTPError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("ballchasing %s failed with status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Client talks to the ballchasing.com REST API.
//
// Thread Safety: Safe for concurrent use.
type Client struct {
	baseURL        string
	apiKey         string
	client         *http.Client
	limiter        *rate.Limiter
	uploadTimeout  time.Duration
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a client from configuration. Per-request deadlines come
// from the caller's context; uploads additionally get cfg.UploadTimeout.
func NewClient(cfg *config.BallchasingConfig) *Client {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		client:         &http.Client{},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		uploadTimeout:  cfg.UploadTimeout,
		maxRetries:     5,
		retryBaseDelay: time.Second,
	}
}

// Upload sends a replay file. 201 yields a new id; 409 means ballchasing.com
// already has the file and its id is taken from the response body.
func (c *Client) Upload(ctx context.Context, fileName string, content []byte, visibility string) (*UploadResult, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if c.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.uploadTimeout)
		defer cancel()
	}

	reqURL := fmt.Sprintf("%s/api/v2/upload?visibility=%s", c.baseURL, url.QueryEscape(visibility))

	// The body is rebuilt on every attempt so 429 retries resend the whole file.
	newRequest := func() (*http.Request, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(content); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	}

	start := time.Now()
	resp, err := c.doWithRetry(ctx, newRequest)
	if err != nil {
		metrics.RecordBallchasingCall("upload", 0, time.Since(start))
		return nil, fmt.Errorf("ballchasing upload: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordBallchasingCall("upload", resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusConflict:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		if err != nil {
			return nil, fmt.Errorf("ballchasing upload: failed to read response: %w", err)
		}
		id := gjson.GetBytes(body, "id").String()
		if id == "" {
			return nil, fmt.Errorf("ballchasing upload: response without id (status %d)", resp.StatusCode)
		}
		return &UploadResult{
			ID:        id,
			Duplicate: resp.StatusCode == http.StatusConflict,
			Location:  gjson.GetBytes(body, "location").String(),
		}, nil
	default:
		return nil, &HTTPError{Operation: "upload", StatusCode: resp.StatusCode, Body: readBodyForError(resp.Body)}
	}
}

// GetReplay fetches a replay document. Callers bound the call with ctx.
func (c *Client) GetReplay(ctx context.Context, id string) (*Replay, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	reqURL := fmt.Sprintf("%s/api/replays/%s", c.baseURL, url.PathEscape(id))

	start := time.Now()
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	})
	if err != nil {
		metrics.RecordBallchasingCall("get_replay", 0, time.Since(start))
		return nil, fmt.Errorf("ballchasing get replay: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordBallchasingCall("get_replay", resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, &HTTPError{Operation: "get replay", StatusCode: resp.StatusCode, Body: readBodyForError(resp.Body)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ballchasing get replay: failed to read response: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("ballchasing get replay: invalid JSON response")
	}

	return &Replay{
		ID:     id,
		Status: gjson.GetBytes(raw, "status").String(),
		Raw:    raw,
	}, nil
}

// doWithRetry sends the request built by newRequest, waiting on the client
// limiter first and retrying HTTP 429 with exponential backoff
// (1s, 2s, 4s, ...) or the server's Retry-After.
func (c *Client) doWithRetry(ctx context.Context, newRequest func() (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := newRequest()
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close()
		metrics.BallchasingRateLimited.Inc()
		if attempt >= c.maxRetries {
			return nil, fmt.Errorf("%w after %d retries (HTTP 429)", ErrRateLimited, c.maxRetries)
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// readBodyForError reads at most maxErrorBodySize bytes of an error response.
func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	if len(body) == maxErrorBodySize {
		return string(body) + "\n... (truncated)"
	}
	return strings.TrimSpace(string(body))
}
