// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/replayrhythms/internal/api"
	"github.com/tomtom215/replayrhythms/internal/auth"
	"github.com/tomtom215/replayrhythms/internal/ballchasing"
	"github.com/tomtom215/replayrhythms/internal/billing"
	"github.com/tomtom215/replayrhythms/internal/config"
	"github.com/tomtom215/replayrhythms/internal/database"
	"github.com/tomtom215/replayrhythms/internal/logging"
	"github.com/tomtom215/replayrhythms/internal/notify"
	"github.com/tomtom215/replayrhythms/internal/recommend"
	"github.com/tomtom215/replayrhythms/internal/replay"
	"github.com/tomtom215/replayrhythms/internal/spotify"
	"github.com/tomtom215/replayrhythms/internal/storage"
	"github.com/tomtom215/replayrhythms/internal/supervisor"
	"github.com/tomtom215/replayrhythms/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Bool("ballchasing", cfg.Ballchasing.Enabled()).
		Bool("spotify", cfg.Spotify.Enabled()).
		Bool("stripe", cfg.Stripe.Enabled()).
		Bool("recommendations", cfg.Recommend.URL != "").
		Bool("poller", cfg.Poller.Enabled).
		Msg("Starting ReplayRhythms")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	// The uploader and fetcher stay nil interfaces when ballchasing.com is not
	// configured; a typed nil pointer would defeat the handlers' nil checks.
	var (
		uploader api.ReplayUploader
		fetcher  replay.Fetcher
	)
	if cfg.Ballchasing.Enabled() {
		bc := ballchasing.NewCircuitBreakerClient(ballchasing.NewClient(&cfg.Ballchasing))
		uploader = bc
		fetcher = bc
	} else {
		logging.Warn().Msg("BALLCHASING_API_KEY not set - uploads will be stored without analysis")
	}

	reconciler := replay.NewReconciler(db, fetcher)
	reconciler.SetStatusTimeout(cfg.Ballchasing.StatusTimeout)

	authMiddleware := auth.NewMiddleware(auth.NewVerifier(cfg.Supabase.JWTSecret), cfg.Admin, api.WriteError)

	handler := api.NewHandler(cfg, api.Dependencies{
		Store:       db,
		Objects:     storage.NewClient(&cfg.Supabase),
		Uploader:    uploader,
		Reconciler:  reconciler,
		Recommender: recommend.NewClient(&cfg.Recommend),
		Spotify:     spotify.NewClient(&cfg.Spotify),
		Billing:     billing.NewService(&cfg.Stripe, cfg.Server.AppURL, db),
		Notifier:    notify.NewNotifier(&cfg.Notify),
		Auth:        authMiddleware,
	})

	router := api.NewRouter(handler, api.ChiMiddlewareConfigFrom(&cfg.Security))
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Poller.Enabled {
		poller := replay.NewPoller(db, reconciler, cfg.Poller.Schedule, cfg.Poller.BatchSize)
		tree.AddWorkerService(services.NewPollerService(poller))
		logging.Info().
			Str("schedule", cfg.Poller.Schedule).
			Int("batch_size", cfg.Poller.BatchSize).
			Msg("Replay poller added to supervisor tree")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, services.DefaultShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("ReplayRhythms stopped")
}
