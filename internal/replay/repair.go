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
	"github.com/tomtom215/replayrhythms/internal/models"
)

// RepairTimeout bounds the ballchasing.com fetch made by Repair.
const RepairTimeout = 15 * time.Second

// RepairReport describes what Repair did.
type RepairReport struct {
	ReplayID          string
	BallchasingID     string
	PreviousStatus    models.ReplayStatus
	Status            models.ReplayStatus
	BallchasingStatus string
	// Updated is false when ballchasing.com is still processing.
	Updated bool
}

// Repair re-fetches a replay from ballchasing.com and applies its status
// regardless of throttling or failure counts. When ballchasingID is non-empty
// and differs from the stored id, it replaces it.
func (r *Reconciler) Repair(ctx context.Context, replayID, ballchasingID string) (*RepairReport, error) {
	rep, err := r.store.GetReplay(ctx, replayID)
	if err != nil {
		return nil, fmt.Errorf("failed to load replay %s: %w", replayID, err)
	}

	report := &RepairReport{
		ReplayID:       rep.ID,
		PreviousStatus: rep.Status,
		Status:         rep.Status,
	}

	if ballchasingID != "" && ballchasingID != rep.BallchasingRef() {
		if err := r.store.SetBallchasingID(ctx, rep.ID, ballchasingID); err != nil {
			return nil, fmt.Errorf("failed to store ballchasing id: %w", err)
		}
		rep.BallchasingID = &ballchasingID
	}
	report.BallchasingID = rep.BallchasingRef()
	if report.BallchasingID == "" {
		return nil, fmt.Errorf("replay %s has no ballchasing id", rep.ID)
	}
	if r.fetcher == nil {
		return nil, ballchasing.ErrNotConfigured
	}

	fetchCtx, cancel := context.WithTimeout(ctx, RepairTimeout)
	defer cancel()
	doc, err := r.fetcher.GetReplay(fetchCtx, report.BallchasingID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch replay from ballchasing.com: %w", err)
	}
	report.BallchasingStatus = doc.Status

	rr := r.WithSource("repair")
	switch doc.Status {
	case ballchasing.StatusPending:
		return report, nil
	case ballchasing.StatusFailed:
		if err := rr.setStatus(ctx, rep, models.ReplayStatusFailed, models.JSONMap{models.MetricsKeyError: msgBallchasingFailed}); err != nil {
			return nil, err
		}
	default:
		extracted, err := ballchasing.ExtractMetricsMap(doc.Raw)
		if err != nil {
			return nil, fmt.Errorf("failed to convert metrics: %w", err)
		}
		if err := rr.setStatus(ctx, rep, models.ReplayStatusReady, extracted); err != nil {
			return nil, err
		}
	}

	report.Status = rep.Status
	report.Updated = true
	return report, nil
}
