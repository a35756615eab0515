// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package services adapts ReplayRhythms components to suture.Service.
//
// HTTPServerService wraps the API's *http.Server with graceful shutdown.
// PollerService wraps the Start/Stop lifecycle of the replay reconciliation
// poller. Both implement fmt.Stringer so supervisor events name them.
package services
