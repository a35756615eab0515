// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package replay

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/replayrhythms/internal/ballchasing"
	"github.com/tomtom215/replayrhythms/internal/models"
)

func TestReconcile_PassiveStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		replay      *models.Replay
		wantStatus  models.ReplayStatus
		wantMessage string
		wantError   string
	}{
		{
			name:        "uploaded",
			replay:      replayAt(models.ReplayStatusUploaded, time.Hour),
			wantStatus:  models.ReplayStatusUploaded,
			wantMessage: "Replay uploaded and waiting to be processed",
		},
		{
			name:        "pending without ballchasing id",
			replay:      replayAt(models.ReplayStatusPending, time.Hour),
			wantStatus:  models.ReplayStatusPending,
			wantMessage: "Replay is waiting for processing",
		},
		{
			name:        "ready",
			replay:      replayAt(models.ReplayStatusReady, time.Hour),
			wantStatus:  models.ReplayStatusReady,
			wantMessage: "Replay is ready",
		},
		{
			name: "failed with recorded error",
			replay: func() *models.Replay {
				r := replayAt(models.ReplayStatusFailed, time.Hour)
				r.Metrics = models.JSONMap{"error": "boom"}
				return r
			}(),
			wantStatus:  models.ReplayStatusFailed,
			wantMessage: "Replay processing failed",
			wantError:   "boom",
		},
		{
			name:        "failed without recorded error",
			replay:      replayAt(models.ReplayStatusFailed, time.Hour),
			wantStatus:  models.ReplayStatusFailed,
			wantMessage: "Replay processing failed",
			wantError:   "Unknown error",
		},
		{
			name:        "unrecognised status",
			replay:      replayAt(models.ReplayStatus("archived"), time.Hour),
			wantStatus:  models.ReplayStatus("archived"),
			wantMessage: "Replay status: archived",
		},
		{
			name:        "processing inside grace period",
			replay:      func() *models.Replay { r := replayAt(models.ReplayStatusProcessing, 10*time.Second); r.BallchasingID = strPtr("bc-1"); return r }(),
			wantStatus:  models.ReplayStatusProcessing,
			wantMessage: "Replay is being processed by ballchasing.com",
		},
		{
			name: "processing throttled",
			replay: func() *models.Replay {
				r := replayAt(models.ReplayStatusProcessing, time.Hour)
				r.BallchasingID = strPtr("bc-1")
				r.LastCheckedAt = timePtr(testNow.Add(-10 * time.Second))
				return r
			}(),
			wantStatus:  models.ReplayStatusProcessing,
			wantMessage: "Replay is being processed by ballchasing.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newFakeStore()
			fetcher := &fakeFetcher{err: errors.New("must not be called")}
			rec := newTestReconciler(store, fetcher)

			res, err := rec.Reconcile(context.Background(), tt.replay)
			if err != nil {
				t.Fatalf("Reconcile: %v", err)
			}
			if res.Status != tt.wantStatus || res.Message != tt.wantMessage || res.Error != tt.wantError {
				t.Errorf("got (%s, %q, %q), want (%s, %q, %q)",
					res.Status, res.Message, res.Error, tt.wantStatus, tt.wantMessage, tt.wantError)
			}
			if n := fetcher.callCount(); n != 0 {
				t.Errorf("fetcher called %d times", n)
			}
			if len(store.updates) != 0 || len(store.touched) != 0 {
				t.Errorf("unexpected writes: updates=%v touched=%v", store.updates, store.touched)
			}
		})
	}
}

func TestReconcile_ProcessingWithoutBallchasingID(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	rec := newTestReconciler(store, &fakeFetcher{})
	r := replayAt(models.ReplayStatusProcessing, 31*time.Second)

	res, err := rec.Reconcile(context.Background(), r)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Status != models.ReplayStatusFailed || res.Message != "Replay upload failed" {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(res.Error, "did not complete") {
		t.Errorf("error = %q", res.Error)
	}

	up, ok := store.lastUpdate()
	if !ok || up.status != models.ReplayStatusFailed {
		t.Fatalf("update = %+v", up)
	}
	if up.metrics.String("failure_reason") != "missing_ballchasing_id" {
		t.Errorf("failure_reason = %q", up.metrics.String("failure_reason"))
	}
	if r.Status != models.ReplayStatusFailed {
		t.Errorf("replay status not mirrored: %s", r.Status)
	}
}

func TestReconcile_ProcessingDueCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		lastChecked *time.Time
	}{
		{name: "never checked", lastChecked: nil},
		{name: "checked long ago", lastChecked: timePtr(testNow.Add(-31 * time.Second))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newFakeStore()
			fetcher := &fakeFetcher{doc: &ballchasing.Replay{ID: "bc-1", Status: "ok", Raw: []byte(okDocument)}}
			rec := newTestReconciler(store, fetcher)

			r := replayAt(models.ReplayStatusProcessing, time.Minute)
			r.BallchasingID = strPtr("bc-1")
			r.LastCheckedAt = tt.lastChecked

			res, err := rec.Reconcile(context.Background(), r)
			if err != nil {
				t.Fatalf("Reconcile: %v", err)
			}
			if res.Status != models.ReplayStatusReady || res.Message != "Replay is ready" {
				t.Errorf("result = %+v", res)
			}
			if at, ok := store.touched["replay-1"]; !ok || !at.Equal(testNow) {
				t.Errorf("last_checked_at not set to now: %v", store.touched)
			}
			up, _ := store.lastUpdate()
			if up.status != models.ReplayStatusReady || up.metrics.String("map_name") != "Mannfield" {
				t.Errorf("update = %+v", up)
			}
			if res.Replay.Summary().Metrics == nil {
				t.Error("ready replay summary should carry metrics")
			}
		})
	}
}

func TestCheck_BallchasingStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		bcStatus    string
		wantStatus  models.ReplayStatus
		wantMessage string
		wantWrite   bool
	}{
		{"pending", "pending", models.ReplayStatusProcessing, "Replay is still being processed by ballchasing.com", false},
		{"failed", "failed", models.ReplayStatusFailed, "Replay processing failed on ballchasing.com", true},
		{"unknown", "queued", models.ReplayStatusProcessing, "Replay is being processed by ballchasing.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newFakeStore()
			rec := newTestReconciler(store, &fakeFetcher{doc: &ballchasing.Replay{ID: "bc-1", Status: tt.bcStatus}})
			r := replayAt(models.ReplayStatusPending, time.Minute)
			r.BallchasingID = strPtr("bc-1")

			res, err := rec.Check(context.Background(), r)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if res.Status != tt.wantStatus || res.Message != tt.wantMessage {
				t.Errorf("got (%s, %q)", res.Status, res.Message)
			}
			if res.Error != "" {
				t.Errorf("error = %q, want empty", res.Error)
			}
			_, wrote := store.lastUpdate()
			if wrote != tt.wantWrite {
				t.Errorf("wrote = %v, want %v", wrote, tt.wantWrite)
			}
		})
	}
}

func TestCheck_TransientFailureIsCounted(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	rec := newTestReconciler(store, &fakeFetcher{err: errors.New("connection reset")})
	r := replayAt(models.ReplayStatusProcessing, time.Minute)
	r.BallchasingID = strPtr("bc-1")
	r.Metrics = models.JSONMap{"check_failures": float64(3)}

	res, err := rec.Check(context.Background(), r)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Status != models.ReplayStatusProcessing || res.Message != "Temporarily unable to check replay status" {
		t.Errorf("result = %+v", res)
	}
	if res.CheckFailures != 4 || res.Error != "connection reset" {
		t.Errorf("failures = %d, error = %q", res.CheckFailures, res.Error)
	}
	m := store.metrics["replay-1"]
	if m.Int("check_failures") != 4 || m.String("last_check_error") != "connection reset" {
		t.Errorf("stored metrics = %v", m)
	}
	if _, wrote := store.lastUpdate(); wrote {
		t.Error("status must not change below the failure limit")
	}
}

func TestCheck_FailureLimitMarksFailed(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	rec := newTestReconciler(store, &fakeFetcher{err: errors.New("timeout")})
	r := replayAt(models.ReplayStatusProcessing, time.Hour)
	r.BallchasingID = strPtr("bc-1")
	r.Metrics = models.JSONMap{"check_failures": 9, "last_check_error": "timeout"}

	res, err := rec.Check(context.Background(), r)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Status != models.ReplayStatusFailed || res.Message != "Replay status check failed" {
		t.Errorf("result = %+v", res)
	}
	if res.Error != "Unable to retrieve status from ballchasing.com: timeout" {
		t.Errorf("error = %q", res.Error)
	}

	up, _ := store.lastUpdate()
	if up.status != models.ReplayStatusFailed {
		t.Fatalf("update = %+v", up)
	}
	if got := up.metrics.String("error"); got != "Failed to check ballchasing.com after 10 attempts: timeout" {
		t.Errorf("metrics.error = %q", got)
	}
	if up.metrics.Int("check_failures") != 10 || up.metrics.String("last_check_error") != "timeout" {
		t.Errorf("existing metrics not merged: %v", up.metrics)
	}
}

func TestCheck_MissingAPIKey(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	rec := newTestReconciler(store, nil)
	r := replayAt(models.ReplayStatusPending, time.Minute)
	r.BallchasingID = strPtr("bc-1")

	res, err := rec.Check(context.Background(), r)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Error != "Ballchasing API key not configured" {
		t.Errorf("error = %q", res.Error)
	}
}

func TestReconcile_PendingStoreErrorReportsPending(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.updateErr = errStore
	rec := newTestReconciler(store, &fakeFetcher{doc: &ballchasing.Replay{Status: "failed"}})
	r := replayAt(models.ReplayStatusPending, time.Minute)
	r.BallchasingID = strPtr("bc-1")

	res, err := rec.Reconcile(context.Background(), r)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Status != models.ReplayStatusPending || res.Message != "Replay is waiting for processing" {
		t.Errorf("result = %+v", res)
	}
}

func TestReconcile_ProcessingStoreErrorReportsProcessing(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.updateErr = errStore
	rec := newTestReconciler(store, &fakeFetcher{doc: &ballchasing.Replay{Status: "failed"}})
	r := replayAt(models.ReplayStatusProcessing, time.Minute)
	r.BallchasingID = strPtr("bc-1")

	res, err := rec.Reconcile(context.Background(), r)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Status != models.ReplayStatusProcessing {
		t.Errorf("status = %s", res.Status)
	}
}

func TestWithSource_DoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	rec := NewReconciler(newFakeStore(), nil)
	poller := rec.WithSource("poller")
	if rec.source != "request" || poller.source != "poller" {
		t.Errorf("sources = %q, %q", rec.source, poller.source)
	}
}

func TestCheckAfterUpload(t *testing.T) {
	t.Parallel()

	t.Run("fetch error leaves replay untouched", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		rec := newTestReconciler(store, &fakeFetcher{err: errors.New("timeout")})
		r := replayAt(models.ReplayStatusProcessing, 0)
		r.BallchasingID = strPtr("bc-1")

		res, err := rec.CheckAfterUpload(context.Background(), r)
		if err != nil {
			t.Fatalf("CheckAfterUpload: %v", err)
		}
		if res.Status != models.ReplayStatusProcessing || res.CheckFailures != 0 {
			t.Errorf("result = %+v", res)
		}
		if len(store.metrics) != 0 {
			t.Errorf("failure counted: %v", store.metrics)
		}
		if _, wrote := store.lastUpdate(); wrote {
			t.Error("status must not change")
		}
	})

	t.Run("already parsed duplicate becomes ready", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		rec := newTestReconciler(store, &fakeFetcher{doc: &ballchasing.Replay{ID: "bc-1", Status: "ok", Raw: []byte(okDocument)}})
		r := replayAt(models.ReplayStatusProcessing, 0)
		r.BallchasingID = strPtr("bc-1")

		res, err := rec.CheckAfterUpload(context.Background(), r)
		if err != nil {
			t.Fatalf("CheckAfterUpload: %v", err)
		}
		if res.Status != models.ReplayStatusReady {
			t.Errorf("status = %s", res.Status)
		}
		up, _ := store.lastUpdate()
		if up.status != models.ReplayStatusReady || up.metrics.String("map_name") != "Mannfield" {
			t.Errorf("update = %+v", up)
		}
	})
}

// slowFetcher blocks until the call's deadline.
type slowFetcher struct{}

func (slowFetcher) GetReplay(ctx context.Context, _ string) (*ballchasing.Replay, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCheck_StatusTimeout(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	rec := newTestReconciler(store, slowFetcher{})
	rec.SetStatusTimeout(20 * time.Millisecond)
	r := replayAt(models.ReplayStatusProcessing, time.Minute)
	r.BallchasingID = strPtr("bc-1")

	start := time.Now()
	res, err := rec.Check(context.Background(), r)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if elapsed := time.Since(start); elapsed > StatusCheckTimeout {
		t.Errorf("Check took %v, the configured timeout was not applied", elapsed)
	}
	if res.CheckFailures != 1 || !strings.Contains(res.Error, "deadline") {
		t.Errorf("result = %+v", res)
	}
}
