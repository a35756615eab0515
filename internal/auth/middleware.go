// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/replayrhythms/internal/config"
	"github.com/tomtom215/replayrhythms/internal/logging"
)

// AccessTokenCookie carries the Supabase access token for browser requests.
const AccessTokenCookie = "sb-access-token"

// ErrorFunc writes an authentication or authorization failure.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, status int, message string)

// Middleware authenticates requests with a Verifier.
type Middleware struct {
	verifier *Verifier
	admins   config.AdminConfig
	onError  ErrorFunc
	security *logging.SecurityLogger
}

// NewMiddleware creates the middleware. onError may be nil, in which case
// failures are written with http.Error.
func NewMiddleware(verifier *Verifier, admins config.AdminConfig, onError ErrorFunc) *Middleware {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, status int, message string) {
			http.Error(w, message, status)
		}
	}
	return &Middleware{
		verifier: verifier,
		admins:   admins,
		onError:  onError,
		security: logging.NewSecurityLogger(),
	}
}

// Authenticate resolves the caller of r. It returns ErrMissingToken when no
// token is present.
func (m *Middleware) Authenticate(r *http.Request) (*User, error) {
	token := extractToken(r)
	if token == "" {
		return nil, ErrMissingToken
	}
	claims, err := m.verifier.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	u := UserFromClaims(claims)
	u.IsAdmin = m.admins.IsAdmin(u.Email)
	return u, nil
}

// Optional attaches the caller when a valid token is present and otherwise
// continues anonymously.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.Authenticate(r)
		if err != nil {
			if !errors.Is(err, ErrMissingToken) {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("Ignoring invalid access token")
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r, u)))
	})
}

// Require rejects anonymous requests with 401 Unauthorized.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.Authenticate(r)
		if err != nil {
			if !errors.Is(err, ErrMissingToken) {
				m.security.LogTokenRejected(r.RemoteAddr, r.URL.Path, err.Error())
			}
			m.onError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r, u)))
	})
}

// RequireAdmin rejects callers that are not on the admin allowlist with
// 403, and anonymous callers with 401.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil || !u.IsAdmin {
			m.security.LogAdminDenied(userIDOf(u), emailOf(u), r.RemoteAddr, r.URL.Path)
			m.onError(w, r, http.StatusForbidden, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func withUser(r *http.Request, u *User) context.Context {
	ctx := ContextWithUser(r.Context(), u)
	return logging.ContextWithUserID(ctx, u.ID)
}

func userIDOf(u *User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

func emailOf(u *User) string {
	if u == nil {
		return ""
	}
	return u.Email
}

// extractToken reads the bearer token, falling back to the cookie.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}
