// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/replayrhythms/internal/logging"
	"github.com/tomtom215/replayrhythms/internal/metrics"
)

// DefaultBatchSize is the number of replays reconciled per poller run.
const DefaultBatchSize = 50

// ErrPollerRunning is returned by Start when the poller is already running.
var ErrPollerRunning = errors.New("replay poller already running")

// Poller periodically reconciles replays stuck in processing or pending so
// they settle even when no client is polling them.
type Poller struct {
	reconciler *Reconciler
	store      Store
	schedule   string
	batchSize  int

	mu   sync.Mutex
	cron *cron.Cron
}

// NewPoller creates a poller. schedule is a standard cron spec or a
// descriptor such as "@every 1m".
func NewPoller(store Store, reconciler *Reconciler, schedule string, batchSize int) *Poller {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Poller{
		reconciler: reconciler.WithSource("poller"),
		store:      store,
		schedule:   schedule,
		batchSize:  batchSize,
	}
}

// Start schedules RunOnce. The job never overlaps itself. Runs use ctx, so
// canceling it aborts an in-flight sweep.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cron != nil {
		return ErrPollerRunning
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	if _, err := c.AddFunc(p.schedule, func() {
		if _, err := p.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Replay poller run failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid poller schedule %q: %w", p.schedule, err)
	}

	c.Start()
	p.cron = c
	logging.Info().Str("schedule", p.schedule).Int("batch_size", p.batchSize).Msg("Replay poller started")
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (p *Poller) Stop() error {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.mu.Unlock()

	if c == nil {
		return nil
	}
	<-c.Stop().Done()
	logging.Info().Msg("Replay poller stopped")
	return nil
}

// RunOnce reconciles one batch of unsettled replays and returns how many
// were examined. A failure on one replay is logged and does not stop the
// sweep.
func (p *Poller) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	cutoff := p.reconciler.now().Add(-CheckThrottle)
	ctx = logging.ContextWithLogger(ctx, logging.WithComponent("replay-poller"))

	replays, err := p.store.ListUnsettledReplays(ctx, cutoff, p.batchSize)
	if err != nil {
		err = fmt.Errorf("failed to list unsettled replays: %w", err)
		metrics.RecordPollerRun(0, time.Since(start), err)
		return 0, err
	}

	checked := 0
	for i := range replays {
		if err := ctx.Err(); err != nil {
			metrics.RecordPollerRun(checked, time.Since(start), err)
			return checked, err
		}
		r := &replays[i]
		if _, err := p.reconciler.Reconcile(ctx, r); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("replay_id", r.ID).Msg("Failed to reconcile replay")
		}
		checked++
	}

	metrics.RecordPollerRun(checked, time.Since(start), nil)
	if checked > 0 {
		logging.Ctx(ctx).Debug().Int("checked", checked).Dur("duration", time.Since(start)).Msg("Replay poller run complete")
	}
	return checked, nil
}
