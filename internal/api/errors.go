// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package api

import "errors"

// Request errors whose text is returned to clients verbatim.
//
//nolint:staticcheck // user-facing messages
var (
	ErrUnauthorized = errors.New("Unauthorized")

	ErrNoFile = errors.New("No file provided")

	ErrNotReplayFile = errors.New("Only Rocket League replay files (.replay) are accepted")

	ErrInvalidJSON = errors.New("Invalid JSON body")

	ErrUploadTooLarge = errors.New("File exceeds the maximum upload size")
)
