// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

/*
Command fixreplay is the operator tool for replays whose status went wrong.

	fixreplay repair <replay-id> [ballchasing-id]
	fixreplay stuck [--older-than 10m] [--limit 50]
	fixreplay sweep [--batch-size 25]

repair re-fetches a replay from ballchasing.com and applies the result even
when the regular checks are throttled or have given up. Passing a
ballchasing id stores it first, for replays whose upload never recorded one.

stuck lists replays still in processing or pending that have not been
checked recently. sweep runs one pass of the background poller.

fixreplay reads the same configuration as the server (config.yaml, .env
files, environment). It never runs migrations.
*/
package main
