// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package ballchasing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/replayrhythms/internal/breaker"
	"github.com/tomtom215/replayrhythms/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(&config.BallchasingConfig{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		UploadTimeout:     5 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             100,
	})
	c.retryBaseDelay = time.Millisecond
	return c
}

func TestUpload_Created(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v2/upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("visibility"); got != "unlisted" {
			t.Errorf("visibility = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "test-key" {
			t.Errorf("Authorization = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		if header.Filename != "match.replay" || string(body) != "REPLAYDATA" {
			t.Errorf("file = %s (%q)", header.Filename, body)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"bc-new","location":"https://ballchasing.com/replay/bc-new"}`))
	})

	res, err := c.Upload(context.Background(), "match.replay", []byte("REPLAYDATA"), "unlisted")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.ID != "bc-new" || res.Duplicate {
		t.Errorf("result = %+v", res)
	}
}

func TestUpload_Duplicate(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"duplicate replay","id":"bc-existing"}`))
	})

	res, err := c.Upload(context.Background(), "match.replay", []byte("x"), "public")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.ID != "bc-existing" || !res.Duplicate {
		t.Errorf("result = %+v", res)
	}
}

func TestUpload_ErrorStatus(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"not a replay file"}`))
	})

	_, err := c.Upload(context.Background(), "match.replay", []byte("x"), "public")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusBadRequest || httpErr.Body != `{"error":"not a replay file"}` {
		t.Errorf("HTTPError = %+v", httpErr)
	}
}

func TestUpload_RetriesOnRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Every attempt must carry the full file.
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("attempt %d without file: %v", calls.Load()+1, err)
		}
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"bc-after-retry"}`))
	})

	res, err := c.Upload(context.Background(), "match.replay", []byte("x"), "public")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.ID != "bc-after-retry" || calls.Load() != 3 {
		t.Errorf("id = %s after %d calls", res.ID, calls.Load())
	}
}

func TestGetReplay_RateLimitExhausted(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.maxRetries = 2

	_, err := c.GetReplay(context.Background(), "bc-1")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestGetReplay(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/replays/bc-ok":
			_, _ = w.Write([]byte(sampleReplay))
		case "/api/replays/bc-pending":
			_, _ = w.Write([]byte(`{"id":"bc-pending","status":"pending"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	r, err := c.GetReplay(context.Background(), "bc-ok")
	if err != nil {
		t.Fatalf("GetReplay(ok) error = %v", err)
	}
	if r.Status != StatusOK || len(r.Raw) == 0 {
		t.Errorf("replay = %+v", r)
	}

	r, err = c.GetReplay(context.Background(), "bc-pending")
	if err != nil || r.Status != StatusPending {
		t.Errorf("GetReplay(pending) = %+v, %v", r, err)
	}

	if _, err := c.GetReplay(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetReplay_HonorsContextDeadline(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.GetReplay(ctx, "slow"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestClient_NotConfigured(t *testing.T) {
	t.Parallel()

	c := NewClient(&config.BallchasingConfig{BaseURL: "http://127.0.0.1:1", RequestsPerSecond: 1, Burst: 1})
	if _, err := c.GetReplay(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("GetReplay err = %v", err)
	}
	if _, err := c.Upload(context.Background(), "a.replay", nil, "public"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Upload err = %v", err)
	}
	if ErrNotConfigured.Error() != "Ballchasing API key not configured" {
		t.Errorf("message = %q", ErrNotConfigured.Error())
	}
}

type failingAPI struct {
	err   error
	calls atomic.Int32
}

func (f *failingAPI) Upload(context.Context, string, []byte, string) (*UploadResult, error) {
	f.calls.Add(1)
	return nil, f.err
}

func (f *failingAPI) GetReplay(context.Context, string) (*Replay, error) {
	f.calls.Add(1)
	return nil, f.err
}

func TestCircuitBreakerClient_OpensOnFailures(t *testing.T) {
	t.Parallel()

	upstream := &failingAPI{err: errors.New("connection refused")}
	cbc := newCircuitBreakerClient(upstream, breaker.Settings{MinRequests: 3, FailureRatio: 0.5})

	for i := 0; i < 3; i++ {
		_, _ = cbc.GetReplay(context.Background(), "bc")
	}
	_, err := cbc.GetReplay(context.Background(), "bc")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if upstream.calls.Load() != 3 {
		t.Errorf("upstream calls = %d, want 3", upstream.calls.Load())
	}
}

func TestCircuitBreakerClient_NotFoundIsHealthy(t *testing.T) {
	t.Parallel()

	upstream := &failingAPI{err: ErrNotFound}
	cbc := newCircuitBreakerClient(upstream, breaker.Settings{MinRequests: 2, FailureRatio: 0.5})

	for i := 0; i < 5; i++ {
		if _, err := cbc.GetReplay(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	}
	if cbc.State() != "closed" {
		t.Errorf("state = %s, want closed", cbc.State())
	}
}
