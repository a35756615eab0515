// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package api

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/replayrhythms/internal/auth"
	"github.com/tomtom215/replayrhythms/internal/ballchasing"
	"github.com/tomtom215/replayrhythms/internal/billing"
	"github.com/tomtom215/replayrhythms/internal/cache"
	"github.com/tomtom215/replayrhythms/internal/config"
	"github.com/tomtom215/replayrhythms/internal/logging"
	"github.com/tomtom215/replayrhythms/internal/models"
	"github.com/tomtom215/replayrhythms/internal/notify"
	"github.com/tomtom215/replayrhythms/internal/recommend"
	"github.com/tomtom215/replayrhythms/internal/replay"
	"github.com/tomtom215/replayrhythms/internal/spotify"
	"github.com/tomtom215/replayrhythms/internal/storage"
)

// Store is the persistence the handlers need. *database.DB satisfies it.
type Store interface {
	replay.Store

	Ping(ctx context.Context) error

	CreateReplay(ctx context.Context, r *models.Replay) error
	SetReplayVisibility(ctx context.Context, id, visibility string) error
	ListUserReplays(ctx context.Context, userID string) ([]models.Replay, error)
	ListShowcaseReplays(ctx context.Context, limit int) ([]models.Replay, error)

	CreateFeedback(ctx context.Context, f *models.Feedback) error
	ListUserFeedback(ctx context.Context, userID string) ([]models.Feedback, error)
	ListFeedback(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, int, error)
	GetFeedback(ctx context.Context, id string) (*models.Feedback, error)
	UpdateFeedback(ctx context.Context, id string, u models.FeedbackUpdate) error
	AddFeedbackResponse(ctx context.Context, r *models.FeedbackResponse) error
	CreateQuickFeedback(ctx context.Context, q *models.QuickFeedback) error
	ListQuickFeedback(ctx context.Context, feedbackContext, sessionID string, limit int) ([]models.QuickFeedback, error)

	ListFeatureRequests(ctx context.Context, filter models.FeatureRequestFilter) ([]models.FeatureRequest, int, error)
	CreateFeatureRequest(ctx context.Context, fr *models.FeatureRequest) error
	GetFeatureRequest(ctx context.Context, id string, withVotes bool) (*models.FeatureRequest, error)
	UpdateFeatureRequest(ctx context.Context, id string, u models.FeatureRequestUpdate) error
	DeleteFeatureRequest(ctx context.Context, id string) error
	AddVote(ctx context.Context, featureID, userID string) (*models.FeatureVote, int, error)
	RemoveVote(ctx context.Context, featureID, userID string) (int, error)
}

// ObjectStore stores uploaded replay files. *storage.Client satisfies it.
type ObjectStore interface {
	Bucket() string
	Upload(ctx context.Context, bucket, path, contentType string, body []byte, upsert bool) (*storage.UploadedObject, error)
	PublicURL(bucket, path string) string
	SignedURL(ctx context.Context, bucket, path string, expiresIn time.Duration) (string, error)
}

// ReplayUploader submits replay files to ballchasing.com.
type ReplayUploader interface {
	Upload(ctx context.Context, fileName string, content []byte, visibility string) (*ballchasing.UploadResult, error)
}

// Recommender proxies the recommendation service. *recommend.Client satisfies it.
type Recommender interface {
	Configured() bool
	Recommend(ctx context.Context, req recommend.Request) (json.RawMessage, error)
	Test(ctx context.Context, playerID string, topN int) (json.RawMessage, error)
}

// TrackService looks up Spotify tracks. *spotify.Client satisfies it.
type TrackService interface {
	Configured() bool
	AccessToken(ctx context.Context) (*spotify.Token, error)
	Track(ctx context.Context, id string) (*spotify.Track, error)
}

// Billing creates checkout sessions and applies webhooks. *billing.Service
// satisfies it.
type Billing interface {
	Configured() bool
	CreateCheckoutSession(ctx context.Context, userID, email string) (*billing.CheckoutSession, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (string, error)
}

// VisitNotifier emails resume visit notifications. *notify.Notifier satisfies it.
type VisitNotifier interface {
	Configured() bool
	SendResumeVisit(ctx context.Context, v *notify.VisitorData, userEmail string) (string, error)
}

// trackCacheTTL bounds how long Spotify track metadata is served from memory.
const trackCacheTTL = 10 * time.Minute

// Dependencies are the collaborators of Handler. Store, Objects, Reconciler
// and Auth are required; the integrations answer "not configured" on their
// own when their credentials are missing.
type Dependencies struct {
	Store       Store
	Objects     ObjectStore
	Uploader    ReplayUploader
	Reconciler  *replay.Reconciler
	Recommender Recommender
	Spotify     TrackService
	Billing     Billing
	Notifier    VisitNotifier
	Auth        *auth.Middleware
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files by area:
//   - handlers_replay.go: upload, replay status, listings, signed URLs
//   - handlers_recommend.go: recommendation proxy and Spotify lookups
//   - handlers_billing.go: Stripe checkout and webhooks
//   - handlers_feedback.go, handlers_feature_requests.go, handlers_admin.go
//   - handlers_site.go: health, robots.txt, sitemap.xml, redirects, visit tracking
type Handler struct {
	cfg         *config.Config
	store       Store
	objects     ObjectStore
	uploader    ReplayUploader
	reconciler  *replay.Reconciler
	recommender Recommender
	spotify     TrackService
	tracks      *cache.Cache[*spotify.Track]
	billing     Billing
	notifier    VisitNotifier
	auth        *auth.Middleware
	security    *logging.SecurityLogger
	startTime   time.Time
	now         func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(cfg *config.Config, deps Dependencies) *Handler {
	return &Handler{
		cfg:         cfg,
		store:       deps.Store,
		objects:     deps.Objects,
		uploader:    deps.Uploader,
		reconciler:  deps.Reconciler,
		recommender: deps.Recommender,
		spotify:     deps.Spotify,
		tracks:      cache.New[*spotify.Track](trackCacheTTL),
		billing:     deps.Billing,
		notifier:    deps.Notifier,
		auth:        deps.Auth,
		security:    logging.NewSecurityLogger(),
		startTime:   time.Now(),
		now:         time.Now,
	}
}
