// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package auth

import "context"

type contextKey string

const userContextKey contextKey = "auth_user"

// User is the authenticated caller.
type User struct {
	ID      string
	Email   string
	IsAdmin bool
}

// UserFromClaims builds a User. Admin status is decided by the middleware.
func UserFromClaims(c *Claims) *User {
	return &User{ID: c.Subject, Email: c.Email}
}

// ContextWithUser stores u in ctx.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the caller or nil for anonymous requests.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userContextKey).(*User)
	return u
}

// UserID returns the caller's id or "".
func UserID(ctx context.Context) string {
	if u := UserFromContext(ctx); u != nil {
		return u.ID
	}
	return ""
}
