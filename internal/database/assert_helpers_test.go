// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package database

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// fixedNow is the clock used by every mock-backed DB in this package's tests.
var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Valid UUIDs for ids that pass the uuid.Parse guard.
const (
	testReplayID  = "6f1c1a8e-2f4b-4b7a-9c53-0d0f6b7b1a01"
	testUserID    = "0b7e6e52-6c1e-4a8f-8f8b-0c9bd1e1c002"
	testFeatureID = "a3f5c0d2-7e4b-4f11-9e5e-5e3c2d1b0a03"
)

// newMockDB returns a DB backed by sqlmock with a fixed clock.
// Expectations are verified when the test ends.
func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	db := NewFromSQL(sqlDB)
	db.SetClock(func() time.Time { return fixedNow })

	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = sqlDB.Close()
	})
	return db, mock
}

// q quotes a SQL fragment for sqlmock's regexp matcher.
func q(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

// checkNoError fails the test if err is not nil
func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// checkStringEqual checks that got equals want
func checkStringEqual(t *testing.T, fieldName, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %q, got %q", fieldName, want, got)
	}
}

// checkIntEqual checks that got equals want
func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}
