// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/replayrhythms/internal/auth"
	"github.com/tomtom215/replayrhythms/internal/config"
	"github.com/tomtom215/replayrhythms/internal/replay"
)

const testJWTSecret = "test-jwt-secret-with-enough-length-for-hs256"

const (
	testUserID  = "user-1"
	testEmail   = "player@example.com"
	otherUserID = "user-2"
	adminUserID = "admin-1"
	adminEmail  = "admin@example.com"
)

// testEnv is a router over in-memory collaborators.
type testEnv struct {
	store       *memStore
	objects     *memObjects
	fetcher     *fakeFetcher
	uploader    *fakeUploader
	recommender *fakeRecommender
	tracks      *fakeTracks
	billing     *fakeBilling
	notifier    *fakeNotifier
	handler     *Handler
	router      http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.AppURL = "https://replayrhythms.test/"
	cfg.Security.MaxUploadBytes = 1 << 20
	cfg.Admin.Emails = []string{adminEmail}

	env := &testEnv{
		store:       newMemStore(),
		objects:     newMemObjects(),
		fetcher:     &fakeFetcher{},
		uploader:    &fakeUploader{},
		recommender: &fakeRecommender{configured: true},
		tracks:      &fakeTracks{configured: true},
		billing:     &fakeBilling{configured: true},
		notifier:    &fakeNotifier{configured: true},
	}

	env.handler = NewHandler(cfg, Dependencies{
		Store:       env.store,
		Objects:     env.objects,
		Uploader:    env.uploader,
		Reconciler:  replay.NewReconciler(env.store, env.fetcher),
		Recommender: env.recommender,
		Spotify:     env.tracks,
		Billing:     env.billing,
		Notifier:    env.notifier,
		Auth:        auth.NewMiddleware(auth.NewVerifier(testJWTSecret), cfg.Admin, WriteError),
	})
	env.router = NewRouter(env.handler, &ChiMiddlewareConfig{RateLimitDisabled: true}).SetupChi()
	return env
}

func token(t *testing.T, userID, email string) string {
	t.Helper()
	tok, err := auth.SignForTest(testJWTSecret, userID, email, time.Hour)
	if err != nil {
		t.Fatalf("SignForTest: %v", err)
	}
	return tok
}

// do sends a request through the router. A non-empty bearer authenticates it.
func (e *testEnv) do(t *testing.T, method, target string, body interface{}, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return e.serve(req)
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, w.Body.String())
	}
	return env
}

// decodeData decodes the envelope's data into dst and returns the envelope.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) envelope {
	t.Helper()
	env := decodeEnvelope(t, w)
	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("decode data: %v (body %s)", err, w.Body.String())
		}
	}
	return env
}

// expectError asserts the status, error code and message of a failure.
func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code, message string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", w.Body.String())
	}
	if code != "" && env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
	if message != "" && env.Error.Message != message {
		t.Errorf("error message = %q, want %q", env.Error.Message, message)
	}
}
