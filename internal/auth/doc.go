// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package auth verifies Supabase access tokens and exposes the caller to
// handlers.
//
// Supabase Auth issues the sessions; this service never signs tokens. An
// access token is accepted from the Authorization header ("Bearer <jwt>") or
// from the sb-access-token cookie, verified with the project's JWT secret
// (HS256), and turned into a User stored in the request context.
//
// Middleware variants:
//
//	r.With(authMW.Optional).Get("/api/replay/{id}", h.GetReplay)    // anonymous allowed
//	r.With(authMW.Require).Post("/api/upload-replay", h.UploadReplay)
//	r.With(authMW.RequireAdmin).Get("/api/admin/feedback", h.AdminListFeedback)
//
// Admins are authenticated users whose email is on the ADMIN_EMAILS allowlist.
package auth
