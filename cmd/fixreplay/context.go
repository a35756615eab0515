// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tomtom215/replayrhythms/internal/ballchasing"
	"github.com/tomtom215/replayrhythms/internal/config"
	"github.com/tomtom215/replayrhythms/internal/database"
	"github.com/tomtom215/replayrhythms/internal/logging"
	"github.com/tomtom215/replayrhythms/internal/replay"
)

// environment is what a subcommand works against.
type environment struct {
	store      replay.Store
	reconciler *replay.Reconciler
	batchSize  int
	close      func() error
}

// commandContext carries root flags and the lazily built environment.
type commandContext struct {
	configPath string
	noColor    bool
	verbose    bool

	// open is replaced in tests.
	open func(ctx context.Context, c *commandContext) (*environment, error)
}

func newCommandContext() *commandContext {
	return &commandContext{open: openEnvironment}
}

// withEnvironment opens the environment, runs fn and closes it.
func (c *commandContext) withEnvironment(ctx context.Context, fn func(env *environment) error) (err error) {
	env, err := c.open(ctx, c)
	if err != nil {
		return err
	}
	if env.close != nil {
		defer func() {
			if cerr := env.close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}
	return fn(env)
}

func openEnvironment(ctx context.Context, c *commandContext) (*environment, error) {
	if c.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, c.configPath); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if c.verbose {
		level = "debug"
	}
	logging.Init(logging.Config{Level: level, Format: "console"})

	dbCfg := cfg.Database
	dbCfg.MigrateOnStart = false
	db, err := database.Open(ctx, &dbCfg)
	if err != nil {
		return nil, err
	}

	// Nil interface when unconfigured so Repair reports ErrNotConfigured.
	var fetcher replay.Fetcher
	if cfg.Ballchasing.Enabled() {
		fetcher = ballchasing.NewClient(&cfg.Ballchasing)
	}
	reconciler := replay.NewReconciler(db, fetcher)
	reconciler.SetStatusTimeout(cfg.Ballchasing.StatusTimeout)

	return &environment{
		store:      db,
		reconciler: reconciler,
		batchSize:  cfg.Poller.BatchSize,
		close:      db.Close,
	}, nil
}

// describeError turns well-known failures into operator hints.
func describeError(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("%w (check the replay id)", err)
	case errors.Is(err, ballchasing.ErrNotConfigured):
		return fmt.Errorf("%w: set BALLCHASING_API_KEY", err)
	default:
		return err
	}
}
