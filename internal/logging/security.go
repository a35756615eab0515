// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// Security event names.
const (
	EventTokenRejected      = "token_rejected"
	EventAdminDenied        = "admin_denied"
	EventAdminAction        = "admin_action"
	EventWebhookRejected    = "webhook_rejected"
	EventReplayAccessDenied = "replay_access_denied"
)

const (
	maxLoggedLen             = 200
	redactedShortValueMarker = "***"
)

// sensitiveKeys are detail keys whose values are always masked.
var sensitiveKeys = map[string]struct{}{
	"access_token":     {},
	"token":            {},
	"api_key":          {},
	"apikey":           {},
	"authorization":    {},
	"cookie":           {},
	"password":         {},
	"secret":           {},
	"service_role_key": {},
	"signature":        {},
	"stripe_signature": {},
	"webhook_secret":   {},
}

// sensitiveWords in an error message replace the whole message.
var sensitiveWords = []string{"password", "secret", "token", "key", "bearer", "authorization", "cookie"}

// SecurityEvent is one audit record.
type SecurityEvent struct {
	Event     string
	UserID    string
	Email     string
	IPAddress string
	Path      string
	Success   bool
	Error     string
	Details   map[string]string
}

// SecurityLogger writes audit events for token checks, admin routes, replay
// access and webhook verification. Identifiers and secrets are masked.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger returns a logger tagged component=security on the global logger.
func NewSecurityLogger() *SecurityLogger {
	return NewSecurityLoggerWithLogger(Logger())
}

// NewSecurityLoggerWithLogger tags the given logger instead of the global one.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "security").Logger()}
}

// LogEvent writes event at info level when it succeeded and warn otherwise.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e, status := l.logger.Warn(), "failed"
	if event.Success {
		e, status = l.logger.Info(), "success"
	}
	e = e.Str("event", event.Event).Str("status", status)

	optional := func(key, value string, mask func(string) string) {
		if value != "" {
			e = e.Str(key, mask(value))
		}
	}
	optional("user_id", event.UserID, SanitizeUserID)
	optional("email", event.Email, SanitizeEmail)
	optional("ip", event.IPAddress, func(s string) string { return s })
	optional("path", event.Path, func(s string) string { return truncateString(s, maxLoggedLen) })
	if !event.Success {
		optional("error", event.Error, SanitizeError)
	}
	for k, v := range event.Details {
		e = e.Str(k, SanitizeValue(k, v))
	}
	e.Msg("")
}

// LogTokenRejected records an access token that failed verification.
func (l *SecurityLogger) LogTokenRejected(ip, path, reason string) {
	l.LogEvent(&SecurityEvent{Event: EventTokenRejected, IPAddress: ip, Path: path, Error: reason})
}

// LogAdminDenied records a non-admin caller on an admin route.
func (l *SecurityLogger) LogAdminDenied(userID, email, ip, path string) {
	l.LogEvent(&SecurityEvent{Event: EventAdminDenied, UserID: userID, Email: email, IPAddress: ip, Path: path})
}

// LogAdminAction records a change made through an admin route.
func (l *SecurityLogger) LogAdminAction(userID, action, resource, resourceID string) {
	l.LogEvent(&SecurityEvent{
		Event:   EventAdminAction,
		UserID:  userID,
		Success: true,
		Details: map[string]string{"action": action, "resource": resource, "resource_id": resourceID},
	})
}

// LogWebhookRejected records a webhook whose signature did not verify.
func (l *SecurityLogger) LogWebhookRejected(provider, ip, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:     EventWebhookRejected,
		IPAddress: ip,
		Error:     reason,
		Details:   map[string]string{"provider": provider},
	})
}

// LogReplayAccessDenied records a caller reaching for another user's
// non-public replay or stored file. userID is empty for anonymous callers.
func (l *SecurityLogger) LogReplayAccessDenied(userID, ip, resource, resourceID string) {
	l.LogEvent(&SecurityEvent{
		Event:     EventReplayAccessDenied,
		UserID:    userID,
		IPAddress: ip,
		Details:   map[string]string{"resource": resource, "resource_id": truncateString(resourceID, maxLoggedLen)},
	})
}

// SanitizeToken keeps the first and last 4 characters of a token.
func SanitizeToken(token string) string {
	switch {
	case token == "":
		return ""
	case len(token) <= 12:
		return redactedShortValueMarker
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeUserID keeps the first and last 4 characters of a user id.
func SanitizeUserID(userID string) string {
	switch {
	case userID == "":
		return ""
	case len(userID) <= 8:
		return redactedShortValueMarker
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// SanitizeEmail keeps two characters of the local part and the domain.
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return redactedShortValueMarker
	}
	if len(local) <= 2 {
		return redactedShortValueMarker + "@" + domain
	}
	return local[:2] + redactedShortValueMarker + "@" + domain
}

// SanitizeError hides messages that mention credentials and truncates the rest.
func SanitizeError(msg string) string {
	lower := strings.ToLower(msg)
	for _, word := range sensitiveWords {
		if strings.Contains(lower, word) {
			return "authentication error"
		}
	}
	return truncateString(msg, maxLoggedLen)
}

// SanitizeValue masks a detail value by key name, and emails by shape.
func SanitizeValue(key, value string) string {
	if _, ok := sensitiveKeys[strings.ToLower(key)]; ok {
		return SanitizeToken(value)
	}
	if strings.Contains(value, "@") && strings.Contains(value, ".") {
		return SanitizeEmail(value)
	}
	return value
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
