// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package api provides the HTTP handlers and Chi routing of the backend.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/replayrhythms/internal/auth"
	"github.com/tomtom215/replayrhythms/internal/middleware"
)

// Router wires handlers and middleware into a Chi mux.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil mwConfig uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		auth:          handler.auth,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// ========================
	// Site Endpoints
	// ========================
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.Ready)
	r.Get("/robots.txt", h.RobotsTxt)
	r.Get("/sitemap.xml", h.Sitemap)
	r.Get("/auth/redirect", h.AuthRedirect)
	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// API Endpoints
	// ========================
	feedbackLimit := router.chiMiddleware.RateLimitFeedback()

	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chimiddleware.Compress(5, "application/json"))

		// Stripe signs the raw body; no session applies.
		r.Post("/webhooks/stripe", h.StripeWebhook)

		// Anonymous callers allowed; a valid token attaches the user.
		r.Group(func(r chi.Router) {
			r.Use(router.auth.Optional)

			r.Get("/replay/{id}", h.GetReplay)
			r.Get("/showcase", h.Showcase)

			r.Post("/recommendations", h.Recommendations)
			r.Get("/recommendations", h.RecommendationsTest)
			r.Post("/spotify/auth", h.SpotifyAuth)
			r.Get("/spotify/track", h.SpotifyTrack)

			r.Get("/feature-requests", h.ListFeatureRequests)
			r.With(feedbackLimit).Post("/feedback/quick", h.SubmitQuickFeedback)
			r.Get("/feedback/quick", h.ListQuickFeedback)

			r.Post("/track-resume-visit", h.TrackResumeVisit)
		})

		// Signed-in users.
		r.Group(func(r chi.Router) {
			r.Use(router.auth.Require)

			r.With(router.chiMiddleware.RateLimitUpload()).Post("/upload-replay", h.UploadReplay)
			r.Get("/replays", h.ListReplays)
			r.Patch("/replays/{id}/visibility", h.SetReplayVisibility)
			r.Get("/get-replay-url", h.GetReplayURL)

			r.Post("/stripe/checkout-session", h.StripeCheckoutSession)

			r.With(feedbackLimit).Post("/feedback", h.SubmitFeedback)
			r.Get("/feedback", h.ListFeedback)

			r.Post("/feature-requests", h.CreateFeatureRequest)
			r.Post("/feature-requests/{id}/vote", h.VoteFeatureRequest)
			r.Delete("/feature-requests/{id}/vote", h.UnvoteFeatureRequest)
		})

		// Admins (ADMIN_EMAILS).
		r.Route("/admin", func(r chi.Router) {
			r.Use(router.auth.RequireAdmin)

			r.Get("/feature-requests/{id}", h.AdminGetFeatureRequest)
			r.Patch("/feature-requests/{id}", h.AdminUpdateFeatureRequest)
			r.Delete("/feature-requests/{id}", h.AdminDeleteFeatureRequest)

			r.Get("/feedback", h.AdminListFeedback)
			r.Get("/feedback/{id}", h.AdminGetFeedback)
			r.Patch("/feedback/{id}", h.AdminUpdateFeedback)
		})
	})

	return r
}
