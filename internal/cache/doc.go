// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

/*
Package cache provides a thread-safe in-memory cache with TTL expiration.

It fronts slow upstream lookups whose answers rarely change, such as Spotify
track metadata:

	tracks := cache.New[*spotify.Track](10 * time.Minute)
	key := cache.GenerateKey("spotify:track", id)
	if t, ok := tracks.Get(key); ok {
	    return t, nil
	}

Expired entries are dropped lazily on Get and swept on Set once per cleanup
interval, so a Cache owns no goroutine and needs no Close.
*/
package cache
