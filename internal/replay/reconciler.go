// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/replayrhythms/internal/ballchasing"
	"github.com/tomtom215/replayrhythms/internal/logging"
	"github.com/tomtom215/replayrhythms/internal/metrics"
	"github.com/tomtom215/replayrhythms/internal/models"
)

const (
	// ProcessingGrace is how long a processing replay is left alone after creation.
	ProcessingGrace = 30 * time.Second
	// CheckThrottle is the minimum interval between status checks of a processing replay.
	CheckThrottle = 30 * time.Second
	// MaxCheckFailures consecutive check errors mark a replay failed.
	MaxCheckFailures = 10
	// StatusCheckTimeout bounds a single ballchasing.com status call.
	StatusCheckTimeout = 5 * time.Second
)

// Messages reported to clients.
const (
	msgUploaded          = "Replay uploaded and waiting to be processed"
	msgProcessing        = "Replay is being processed by ballchasing.com"
	msgStillProcessing   = "Replay is still being processed by ballchasing.com"
	msgPending           = "Replay is waiting for processing"
	msgReady             = "Replay is ready"
	msgFailed            = "Replay processing failed"
	msgUploadFailed      = "Replay upload failed"
	msgBallchasingFailed = "Replay processing failed on ballchasing.com"
	msgCheckFailed       = "Replay status check failed"
	msgCheckUnavailable  = "Temporarily unable to check replay status"

	errMissingBallchasingID = "Upload to ballchasing.com did not complete. Please try uploading again."
	errUnknown              = "Unknown error"

	failureReasonMissingID = "missing_ballchasing_id"
)

// Store is the persistence the reconciler needs. *database.DB satisfies it.
type Store interface {
	GetReplay(ctx context.Context, id string) (*models.Replay, error)
	UpdateReplayStatus(ctx context.Context, id string, status models.ReplayStatus, metrics models.JSONMap) error
	UpdateReplayMetrics(ctx context.Context, id string, metrics models.JSONMap) error
	TouchReplayChecked(ctx context.Context, id string, at time.Time) error
	SetBallchasingID(ctx context.Context, id, ballchasingID string) error
	ListUnsettledReplays(ctx context.Context, checkedBefore time.Time, limit int) ([]models.Replay, error)
}

// Fetcher retrieves replay documents from ballchasing.com.
type Fetcher interface {
	GetReplay(ctx context.Context, id string) (*ballchasing.Replay, error)
}

// Result is the client-facing outcome of reconciling a replay.
type Result struct {
	Status        models.ReplayStatus
	Message       string
	Error         string
	CheckFailures int
	// Replay reflects every write made during reconciliation.
	Replay *models.Replay
}

// Reconciler applies the replay status decision table.
type Reconciler struct {
	store   Store
	fetcher Fetcher
	now     func() time.Time
	source  string
	timeout time.Duration
}

// NewReconciler creates a reconciler. A nil fetcher behaves like a missing
// API key: every check fails with ballchasing.ErrNotConfigured.
func NewReconciler(store Store, fetcher Fetcher) *Reconciler {
	return &Reconciler{
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
		source:  "request",
		timeout: StatusCheckTimeout,
	}
}

// SetStatusTimeout bounds each ballchasing.com status fetch. Non-positive
// values keep StatusCheckTimeout.
func (r *Reconciler) SetStatusTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

// SetClock overrides the clock. Used by tests.
func (r *Reconciler) SetClock(now func() time.Time) {
	r.now = now
}

// WithSource returns a copy that labels status transitions with source
// ("request", "poller", "upload", "repair") in metrics.
func (r *Reconciler) WithSource(source string) *Reconciler {
	cp := *r
	cp.source = source
	return &cp
}

// Reconcile decides whether replay needs a ballchasing.com check, performs
// it, persists the outcome and reports the resulting status. The returned
// error is non-nil only for storage failures that prevent a decision.
func (r *Reconciler) Reconcile(ctx context.Context, replay *models.Replay) (*Result, error) {
	switch replay.Status {
	case models.ReplayStatusUploaded:
		return r.result(replay, models.ReplayStatusUploaded, msgUploaded), nil

	case models.ReplayStatusProcessing:
		return r.reconcileProcessing(ctx, replay)

	case models.ReplayStatusPending:
		if replay.BallchasingRef() == "" {
			return r.result(replay, models.ReplayStatusPending, msgPending), nil
		}
		res, err := r.Check(ctx, replay)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("replay_id", replay.ID).Msg("Status check of pending replay failed")
			return r.result(replay, models.ReplayStatusPending, msgPending), nil
		}
		return res, nil

	case models.ReplayStatusReady:
		return r.result(replay, models.ReplayStatusReady, msgReady), nil

	case models.ReplayStatusFailed:
		res := r.result(replay, models.ReplayStatusFailed, msgFailed)
		res.Error = replay.Metrics.String(models.MetricsKeyError)
		if res.Error == "" {
			res.Error = errUnknown
		}
		return res, nil

	default:
		return r.result(replay, replay.Status, fmt.Sprintf("Replay status: %s", replay.Status)), nil
	}
}

func (r *Reconciler) reconcileProcessing(ctx context.Context, replay *models.Replay) (*Result, error) {
	now := r.now()
	if now.Sub(replay.CreatedAt) <= ProcessingGrace {
		return r.result(replay, models.ReplayStatusProcessing, msgProcessing), nil
	}

	if replay.BallchasingRef() == "" {
		failure := models.JSONMap{
			models.MetricsKeyError:         errMissingBallchasingID,
			models.MetricsKeyFailureReason: failureReasonMissingID,
		}
		if err := r.setStatus(ctx, replay, models.ReplayStatusFailed, failure); err != nil {
			return nil, err
		}
		res := r.result(replay, models.ReplayStatusFailed, msgUploadFailed)
		res.Error = errMissingBallchasingID
		return res, nil
	}

	if replay.LastCheckedAt != nil && now.Sub(*replay.LastCheckedAt) <= CheckThrottle {
		return r.result(replay, models.ReplayStatusProcessing, msgProcessing), nil
	}

	if err := r.store.TouchReplayChecked(ctx, replay.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record status check: %w", err)
	}
	replay.LastCheckedAt = &now

	res, err := r.Check(ctx, replay)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("replay_id", replay.ID).Msg("Status check of processing replay failed")
		return r.result(replay, models.ReplayStatusProcessing, msgProcessing), nil
	}
	return res, nil
}

// Check asks ballchasing.com for the replay and persists the outcome. Fetch
// errors are absorbed into failure counting; the returned error is non-nil
// only when persisting the outcome fails.
func (r *Reconciler) Check(ctx context.Context, replay *models.Replay) (*Result, error) {
	doc, fetchErr := r.fetch(ctx, replay.BallchasingRef())
	if fetchErr != nil {
		return r.recordCheckFailure(ctx, replay, fetchErr)
	}
	return r.apply(ctx, replay, doc)
}

// CheckAfterUpload is the one-shot check made right after a successful
// ballchasing.com upload; duplicates are often parsed already. Fetch errors
// are logged and leave the replay processing without counting a failure.
func (r *Reconciler) CheckAfterUpload(ctx context.Context, replay *models.Replay) (*Result, error) {
	doc, fetchErr := r.fetch(ctx, replay.BallchasingRef())
	if fetchErr != nil {
		logging.Ctx(ctx).Debug().Err(fetchErr).Str("replay_id", replay.ID).Msg("Initial status check skipped")
		return r.result(replay, models.ReplayStatusProcessing, msgProcessing), nil
	}
	return r.apply(ctx, replay, doc)
}

// apply persists the outcome of a fetched ballchasing.com document.
func (r *Reconciler) apply(ctx context.Context, replay *models.Replay, doc *ballchasing.Replay) (*Result, error) {
	switch doc.Status {
	case ballchasing.StatusPending:
		return r.result(replay, models.ReplayStatusProcessing, msgStillProcessing), nil

	case ballchasing.StatusFailed:
		failure := models.JSONMap{models.MetricsKeyError: msgBallchasingFailed}
		if err := r.setStatus(ctx, replay, models.ReplayStatusFailed, failure); err != nil {
			return nil, err
		}
		return r.result(replay, models.ReplayStatusFailed, msgBallchasingFailed), nil

	case ballchasing.StatusOK:
		extracted, err := ballchasing.ExtractMetricsMap(doc.Raw)
		if err != nil {
			return nil, fmt.Errorf("failed to convert metrics: %w", err)
		}
		if err := r.setStatus(ctx, replay, models.ReplayStatusReady, extracted); err != nil {
			return nil, err
		}
		return r.result(replay, models.ReplayStatusReady, msgReady), nil

	default:
		return r.result(replay, models.ReplayStatusProcessing, msgProcessing), nil
	}
}

func (r *Reconciler) fetch(ctx context.Context, ballchasingID string) (*ballchasing.Replay, error) {
	if r.fetcher == nil {
		return nil, ballchasing.ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.fetcher.GetReplay(ctx, ballchasingID)
}

func (r *Reconciler) recordCheckFailure(ctx context.Context, replay *models.Replay, fetchErr error) (*Result, error) {
	metrics.ReplayCheckFailures.Inc()
	failures := replay.CheckFailures() + 1
	msg := fetchErr.Error()

	logging.Ctx(ctx).Warn().
		Err(fetchErr).
		Str("replay_id", replay.ID).
		Int("check_failures", failures).
		Msg("ballchasing.com status check failed")

	if failures >= MaxCheckFailures {
		merged := replay.Metrics.Merge(models.JSONMap{
			models.MetricsKeyError:         fmt.Sprintf("Failed to check ballchasing.com after %d attempts: %s", failures, msg),
			models.MetricsKeyCheckFailures: failures,
		})
		if err := r.setStatus(ctx, replay, models.ReplayStatusFailed, merged); err != nil {
			return nil, err
		}
		res := r.result(replay, models.ReplayStatusFailed, msgCheckFailed)
		res.Error = "Unable to retrieve status from ballchasing.com: " + msg
		return res, nil
	}

	merged := replay.Metrics.Merge(models.JSONMap{
		models.MetricsKeyCheckFailures:  failures,
		models.MetricsKeyLastCheckError: msg,
	})
	if err := r.store.UpdateReplayMetrics(ctx, replay.ID, merged); err != nil {
		return nil, fmt.Errorf("failed to record check failure: %w", err)
	}
	replay.Metrics = merged

	res := r.result(replay, models.ReplayStatusProcessing, msgCheckUnavailable)
	res.Error = msg
	res.CheckFailures = failures
	return res, nil
}

// setStatus persists a status change and mirrors it on replay.
func (r *Reconciler) setStatus(ctx context.Context, replay *models.Replay, status models.ReplayStatus, m models.JSONMap) error {
	if err := r.store.UpdateReplayStatus(ctx, replay.ID, status, m); err != nil {
		return fmt.Errorf("failed to set replay %s to %s: %w", replay.ID, status, err)
	}
	replay.Status = status
	if m != nil {
		replay.Metrics = m
	}
	metrics.RecordReplayTransition(string(status), r.source)
	logging.Ctx(ctx).Info().
		Str("replay_id", replay.ID).
		Str("status", string(status)).
		Str("source", r.source).
		Msg("Replay status updated")
	return nil
}

func (r *Reconciler) result(replay *models.Replay, status models.ReplayStatus, message string) *Result {
	return &Result{Status: status, Message: message, Replay: replay}
}
