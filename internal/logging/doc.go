// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package logging is the zerolog-based structured logger used across
// ReplayRhythms.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("replay_id", id).Msg("Replay uploaded")
//	logging.Error().Err(err).Str("service", "ballchasing").Msg("Upload failed")
//
//	// Request-scoped fields (request_id, user_id) travel in the context.
//	logging.Ctx(r.Context()).Warn().Msg("Status check throttled")
//
// # Configuration
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event
// is never written.
//
// # slog Adapter
//
// NewSlogLogger returns an *slog.Logger that writes through zerolog. The
// supervisor tree hands it to sutureslog.
//
// # Security Logging
//
// SecurityLogger records rejected tokens, denied admin requests, admin
// actions and rejected webhooks with tokens, user ids and emails masked.
//
// # Testing
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
package logging
