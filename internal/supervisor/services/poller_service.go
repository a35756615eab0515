// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package services

import (
	"context"
	"fmt"
)

// StartStopManager is a component with its own goroutines and a Start/Stop
// lifecycle. *replay.Poller satisfies it.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// PollerService adapts a StartStopManager to suture's Serve pattern: Start,
// wait for cancellation, Stop.
type PollerService struct {
	manager StartStopManager
	name    string
}

// NewPollerService wraps the replay reconciliation poller.
func NewPollerService(manager StartStopManager) *PollerService {
	return NewPollerServiceWithName(manager, "replay-poller")
}

// NewPollerServiceWithName wraps manager under a custom service name.
func NewPollerServiceWithName(manager StartStopManager, name string) *PollerService {
	return &PollerService{manager: manager, name: name}
}

// Serve implements suture.Service. A failed Start is returned so the
// supervisor retries with backoff.
func (s *PollerService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	// Stop waits for an in-flight batch to finish.
	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("%s stop failed: %w", s.name, err)
	}
	return ctx.Err()
}

func (s *PollerService) String() string {
	return s.name
}
