// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package replay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/replayrhythms/internal/ballchasing"
	"github.com/tomtom215/replayrhythms/internal/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

var errStore = errors.New("store unavailable")

type statusUpdate struct {
	id      string
	status  models.ReplayStatus
	metrics models.JSONMap
}

// fakeStore records writes made by the reconciler.
type fakeStore struct {
	mu        sync.Mutex
	replays   map[string]*models.Replay
	unsettled []models.Replay
	updates   []statusUpdate
	metrics   map[string]models.JSONMap
	touched   map[string]time.Time
	bcIDs     map[string]string
	listErr   error
	updateErr error
}

func newFakeStore(replays ...*models.Replay) *fakeStore {
	s := &fakeStore{
		replays: make(map[string]*models.Replay),
		metrics: make(map[string]models.JSONMap),
		touched: make(map[string]time.Time),
		bcIDs:   make(map[string]string),
	}
	for _, r := range replays {
		s.replays[r.ID] = r
	}
	return s
}

func (s *fakeStore) GetReplay(_ context.Context, id string) (*models.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replays[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) UpdateReplayStatus(_ context.Context, id string, status models.ReplayStatus, m models.JSONMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, statusUpdate{id: id, status: status, metrics: m})
	return nil
}

func (s *fakeStore) UpdateReplayMetrics(_ context.Context, id string, m models.JSONMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[id] = m
	return nil
}

func (s *fakeStore) TouchReplayChecked(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched[id] = at
	return nil
}

func (s *fakeStore) SetBallchasingID(_ context.Context, id, bcID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bcIDs[id] = bcID
	return nil
}

func (s *fakeStore) ListUnsettledReplays(_ context.Context, _ time.Time, limit int) ([]models.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	if len(s.unsettled) > limit {
		return s.unsettled[:limit], nil
	}
	return s.unsettled, nil
}

func (s *fakeStore) lastUpdate() (statusUpdate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.updates) == 0 {
		return statusUpdate{}, false
	}
	return s.updates[len(s.updates)-1], true
}

// fakeFetcher returns a canned document or error.
type fakeFetcher struct {
	mu    sync.Mutex
	doc   *ballchasing.Replay
	err   error
	calls []string
}

func (f *fakeFetcher) GetReplay(_ context.Context, id string) (*ballchasing.Replay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestReconciler(store Store, fetcher Fetcher) *Reconciler {
	r := NewReconciler(store, fetcher)
	r.SetClock(func() time.Time { return testNow })
	return r
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

// replayAt builds a replay created age before testNow.
func replayAt(status models.ReplayStatus, age time.Duration) *models.Replay {
	return &models.Replay{
		ID:         "replay-1",
		UserID:     "user-1",
		FileName:   "match.replay",
		Status:     status,
		Visibility: models.VisibilityPublic,
		CreatedAt:  testNow.Add(-age),
		UpdatedAt:  testNow.Add(-age),
	}
}

const okDocument = `{"id":"bc-1","status":"ok","title":"Casual","map_name":"Mannfield","blue":{"players":[]},"orange":{"players":[]}}`
