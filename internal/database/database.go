// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/tomtom215/replayrhythms/internal/config"
	"github.com/tomtom215/replayrhythms/internal/logging"
)

const driverName = "postgres"

// DB wraps the Postgres connection pool and provides data access methods.
type DB struct {
	conn *sqlx.DB
	// now is the clock used for updated_at and similar columns.
	now func() time.Time
}

// Open connects to Postgres, configures the pool, verifies the connection and,
// when cfg.MigrateOnStart is set, applies pending migrations.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := sqlx.Open(driverName, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, now: utcNow}
	db.configureConnectionPool(cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := db.Migrate(); err != nil {
			closeQuietly(conn)
			return nil, err
		}
	}

	logging.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Int("max_idle_conns", cfg.MaxIdleConns).
		Msg("Database connection established")

	return db, nil
}

// NewFromSQL wraps an existing *sql.DB. Used by tests with sqlmock.
func NewFromSQL(sqlDB *sql.DB) *DB {
	return &DB{conn: sqlx.NewDb(sqlDB, driverName), now: utcNow}
}

func (db *DB) configureConnectionPool(cfg *config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// SetClock overrides the clock used for timestamps written by the store.
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}

// Ping verifies the database is reachable. Used by the readiness probe.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// withTx runs fn in a transaction, rolling back on error or panic.
func (db *DB) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Warn().Err(rbErr).Msg("Failed to roll back transaction")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
