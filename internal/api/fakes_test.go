// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package api

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/replayrhythms/internal/ballchasing"
	"github.com/tomtom215/replayrhythms/internal/billing"
	"github.com/tomtom215/replayrhythms/internal/database"
	"github.com/tomtom215/replayrhythms/internal/models"
	"github.com/tomtom215/replayrhythms/internal/notify"
	"github.com/tomtom215/replayrhythms/internal/recommend"
	"github.com/tomtom215/replayrhythms/internal/spotify"
	"github.com/tomtom215/replayrhythms/internal/storage"
)

// memStore is an in-memory Store.
type memStore struct {
	mu       sync.Mutex
	seq      int
	pingErr  error
	replays  map[string]*models.Replay
	feedback map[string]*models.Feedback
	quick    []models.QuickFeedback
	features map[string]*models.FeatureRequest
	votes    map[string][]models.FeatureVote
}

func newMemStore() *memStore {
	return &memStore{
		replays:  map[string]*models.Replay{},
		feedback: map[string]*models.Feedback{},
		features: map[string]*models.FeatureRequest{},
		votes:    map[string][]models.FeatureVote{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) Ping(context.Context) error { return s.pingErr }

func (s *memStore) CreateReplay(_ context.Context, r *models.Replay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = s.nextID("replay")
	}
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	cp := *r
	s.replays[r.ID] = &cp
	return nil
}

func (s *memStore) GetReplay(_ context.Context, id string) (*models.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replays[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) replay(id string) *models.Replay {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.replays[id]; ok {
		cp := *r
		return &cp
	}
	return nil
}

func (s *memStore) UpdateReplayStatus(_ context.Context, id string, status models.ReplayStatus, metrics models.JSONMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replays[id]
	if !ok {
		return database.ErrNotFound
	}
	r.Status = status
	if metrics != nil {
		r.Metrics = metrics
	}
	return nil
}

func (s *memStore) UpdateReplayMetrics(_ context.Context, id string, metrics models.JSONMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replays[id]
	if !ok {
		return database.ErrNotFound
	}
	r.Metrics = metrics
	return nil
}

func (s *memStore) TouchReplayChecked(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.replays[id]; ok {
		r.LastCheckedAt = &at
	}
	return nil
}

func (s *memStore) SetBallchasingID(_ context.Context, id, ballchasingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replays[id]
	if !ok {
		return database.ErrNotFound
	}
	r.BallchasingID = &ballchasingID
	return nil
}

func (s *memStore) ListUnsettledReplays(context.Context, time.Time, int) ([]models.Replay, error) {
	return nil, nil
}

func (s *memStore) SetReplayVisibility(_ context.Context, id, visibility string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replays[id]
	if !ok {
		return database.ErrNotFound
	}
	r.Visibility = visibility
	return nil
}

func (s *memStore) ListUserReplays(_ context.Context, userID string) ([]models.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Replay{}
	for _, r := range s.replays {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memStore) ListShowcaseReplays(_ context.Context, limit int) ([]models.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Replay{}
	for _, r := range s.replays {
		if r.IsPublic() && r.Status == models.ReplayStatusReady && len(out) < limit {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memStore) CreateFeedback(_ context.Context, f *models.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.nextID("feedback")
	f.Status = models.FeedbackStatusOpen
	f.Priority = models.FeedbackPriorityMedium
	cp := *f
	s.feedback[f.ID] = &cp
	return nil
}

func (s *memStore) ListUserFeedback(_ context.Context, userID string) ([]models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Feedback{}
	for _, f := range s.feedback {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *memStore) ListFeedback(_ context.Context, filter models.FeedbackFilter) ([]models.Feedback, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := []models.Feedback{}
	for _, f := range s.feedback {
		if filter.Type != "" && f.Type != filter.Type {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		all = append(all, *f)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if filter.Offset >= total {
		return []models.Feedback{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return all[filter.Offset:end], total, nil
}

func (s *memStore) GetFeedback(_ context.Context, id string) (*models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.feedback[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *memStore) UpdateFeedback(_ context.Context, id string, u models.FeedbackUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.feedback[id]
	if !ok {
		return database.ErrNotFound
	}
	if u.Status != nil {
		f.Status = *u.Status
	}
	if u.Priority != nil {
		f.Priority = *u.Priority
	}
	if u.InternalNotes != nil {
		f.InternalNotes = u.InternalNotes
	}
	return nil
}

func (s *memStore) AddFeedbackResponse(_ context.Context, r *models.FeedbackResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.feedback[r.FeedbackID]
	if !ok {
		return database.ErrNotFound
	}
	r.ID = s.nextID("response")
	if r.ResponseType == "" {
		r.ResponseType = models.FeedbackResponseComment
	}
	f.Responses = append(f.Responses, *r)
	return nil
}

func (s *memStore) CreateQuickFeedback(_ context.Context, q *models.QuickFeedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.ID = s.nextID("quick")
	s.quick = append(s.quick, *q)
	return nil
}

func (s *memStore) ListQuickFeedback(_ context.Context, feedbackContext, sessionID string, limit int) ([]models.QuickFeedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.QuickFeedback{}
	for _, q := range s.quick {
		if feedbackContext != "" && q.Context != feedbackContext {
			continue
		}
		if sessionID != "" && q.SessionID != sessionID {
			continue
		}
		if len(out) < limit {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *memStore) ListFeatureRequests(_ context.Context, filter models.FeatureRequestFilter) ([]models.FeatureRequest, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.FeatureRequest{}
	for _, fr := range s.features {
		if filter.Status != "" && fr.Status != filter.Status {
			continue
		}
		out = append(out, *fr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VotesCount > out[j].VotesCount })
	return out, len(out), nil
}

func (s *memStore) CreateFeatureRequest(_ context.Context, fr *models.FeatureRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.features {
		if existing.Title == fr.Title {
			return database.ErrDuplicate
		}
	}
	fr.ID = s.nextID("feature")
	fr.Status = models.FeatureStatusConsidering
	fr.Priority = models.FeaturePriorityMedium
	cp := *fr
	s.features[fr.ID] = &cp
	return nil
}

func (s *memStore) GetFeatureRequest(_ context.Context, id string, withVotes bool) (*models.FeatureRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fr, ok := s.features[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *fr
	if withVotes {
		cp.Votes = append([]models.FeatureVote{}, s.votes[id]...)
	}
	return &cp, nil
}

func (s *memStore) UpdateFeatureRequest(_ context.Context, id string, u models.FeatureRequestUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fr, ok := s.features[id]
	if !ok {
		return database.ErrNotFound
	}
	if u.Status != nil {
		fr.Status = *u.Status
	}
	if u.Priority != nil {
		fr.Priority = *u.Priority
	}
	if u.EstimatedEffort != nil {
		fr.EstimatedEffort = u.EstimatedEffort
	}
	return nil
}

func (s *memStore) DeleteFeatureRequest(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.features[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.features, id)
	delete(s.votes, id)
	return nil
}

func (s *memStore) AddVote(_ context.Context, featureID, userID string) (*models.FeatureVote, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fr, ok := s.features[featureID]
	if !ok {
		return nil, 0, database.ErrNotFound
	}
	for _, v := range s.votes[featureID] {
		if v.UserID == userID {
			return nil, 0, database.ErrDuplicate
		}
	}
	v := models.FeatureVote{ID: s.nextID("vote"), FeatureRequestID: featureID, UserID: userID}
	s.votes[featureID] = append(s.votes[featureID], v)
	fr.VotesCount++
	return &v, fr.VotesCount, nil
}

func (s *memStore) RemoveVote(_ context.Context, featureID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fr, ok := s.features[featureID]
	if !ok {
		return 0, database.ErrNotFound
	}
	votes := s.votes[featureID]
	for i, v := range votes {
		if v.UserID == userID {
			s.votes[featureID] = append(votes[:i], votes[i+1:]...)
			if fr.VotesCount > 0 {
				fr.VotesCount--
			}
			return fr.VotesCount, nil
		}
	}
	return 0, database.ErrNotFound
}

// memObjects is an in-memory ObjectStore.
type memObjects struct {
	mu        sync.Mutex
	files     map[string][]byte
	uploadErr error
	signErr   error
}

func newMemObjects() *memObjects { return &memObjects{files: map[string][]byte{}} }

func (o *memObjects) Bucket() string { return "replays" }

func (o *memObjects) Upload(_ context.Context, bucket, path, _ string, body []byte, _ bool) (*storage.UploadedObject, error) {
	if o.uploadErr != nil {
		return nil, o.uploadErr
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files[path] = body
	return &storage.UploadedObject{Bucket: bucket, Path: path, Key: bucket + "/" + path}, nil
}

func (o *memObjects) PublicURL(bucket, path string) string {
	return "https://storage.test/object/public/" + bucket + "/" + path
}

func (o *memObjects) SignedURL(_ context.Context, bucket, path string, _ time.Duration) (string, error) {
	if o.signErr != nil {
		return "", o.signErr
	}
	return "https://storage.test/object/sign/" + bucket + "/" + path + "?token=t", nil
}

type fakeUploader struct {
	result *ballchasing.UploadResult
	err    error
}

func (u *fakeUploader) Upload(context.Context, string, []byte, string) (*ballchasing.UploadResult, error) {
	return u.result, u.err
}

// fakeFetcher serves the reconciler's ballchasing.com lookups.
type fakeFetcher struct {
	doc *ballchasing.Replay
	err error
}

func (f *fakeFetcher) GetReplay(context.Context, string) (*ballchasing.Replay, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.doc == nil {
		return nil, errors.New("no document")
	}
	return f.doc, nil
}

type fakeRecommender struct {
	configured bool
	data       json.RawMessage
	err        error
	got        recommend.Request
}

func (f *fakeRecommender) Configured() bool { return f.configured }

func (f *fakeRecommender) Recommend(_ context.Context, req recommend.Request) (json.RawMessage, error) {
	f.got = req
	return f.data, f.err
}

func (f *fakeRecommender) Test(_ context.Context, playerID string, topN int) (json.RawMessage, error) {
	f.got = recommend.Request{PlayerID: playerID, TopN: topN}
	return f.data, f.err
}

type fakeTracks struct {
	configured bool
	track      *spotify.Track
	err        error
	lookups    atomic.Int32
}

func (f *fakeTracks) Configured() bool { return f.configured }

func (f *fakeTracks) AccessToken(context.Context) (*spotify.Token, error) {
	return &spotify.Token{AccessToken: "tok", ExpiresIn: 3600}, nil
}

func (f *fakeTracks) Track(context.Context, string) (*spotify.Track, error) {
	f.lookups.Add(1)
	return f.track, f.err
}

type fakeBilling struct {
	configured bool
	webhookErr error
	userID     string
	email      string
}

func (f *fakeBilling) Configured() bool { return f.configured }

func (f *fakeBilling) CreateCheckoutSession(_ context.Context, userID, email string) (*billing.CheckoutSession, error) {
	f.userID, f.email = userID, email
	return &billing.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func (f *fakeBilling) HandleWebhook(context.Context, []byte, string) (string, error) {
	return "checkout.session.completed", f.webhookErr
}

type fakeNotifier struct {
	configured bool
	visitor    *notify.VisitorData
	email      string
	sent       int
}

func (f *fakeNotifier) Configured() bool { return f.configured }

func (f *fakeNotifier) SendResumeVisit(_ context.Context, v *notify.VisitorData, userEmail string) (string, error) {
	f.visitor, f.email = v, userEmail
	f.sent++
	return "email-1", nil
}
