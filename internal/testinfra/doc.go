// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package testinfra starts the Docker containers used by integration tests.
//
// Files in this package carry the integration build tag, so a plain
// `go test ./...` never needs Docker:
//
//	go test -tags integration ./internal/database/...
//
// # Postgres
//
//	func TestVotes(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    db, err := database.Open(ctx, &config.DatabaseConfig{URL: pg.URL, MigrateOnStart: true})
//	    // ...
//	}
//
// Tests are skipped when the Docker daemon is unreachable. The first run pulls
// the image; later runs use the local cache.
package testinfra
