// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/replayrhythms/internal/logging"
)

func TestNewPagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total, count, limit, offset int
		wantMore                    bool
	}{
		{total: 0, count: 0, limit: 50, offset: 0, wantMore: false},
		{total: 120, count: 50, limit: 50, offset: 0, wantMore: true},
		{total: 120, count: 20, limit: 50, offset: 100, wantMore: false},
		{total: 51, count: 50, limit: 50, offset: 0, wantMore: true},
	}
	for _, tt := range tests {
		p := NewPagination(tt.total, tt.count, tt.limit, tt.offset)
		if p.HasMore != tt.wantMore || p.Total != tt.total || p.Count != tt.count {
			t.Errorf("NewPagination(%d, %d, %d, %d) = %+v", tt.total, tt.count, tt.limit, tt.offset, p)
		}
	}
}

func TestWriteError_CodeForStatus(t *testing.T) {
	t.Parallel()

	tests := map[int]string{
		http.StatusBadRequest:          ErrCodeBadRequest,
		http.StatusUnauthorized:        ErrCodeUnauthorized,
		http.StatusForbidden:           ErrCodeForbidden,
		http.StatusNotFound:            ErrCodeNotFound,
		http.StatusConflict:            ErrCodeConflict,
		http.StatusTooManyRequests:     ErrCodeTooManyRequests,
		http.StatusServiceUnavailable:  ErrCodeServiceUnavailable,
		http.StatusGatewayTimeout:      ErrCodeGatewayTimeout,
		http.StatusInternalServerError: ErrCodeInternalError,
		http.StatusBadGateway:          ErrCodeInternalError,
		http.StatusTeapot:              ErrCodeBadRequest,
	}
	for status, want := range tests {
		w := httptest.NewRecorder()
		WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), status, "msg")
		expectError(t, w, status, want, "msg")
	}
}

func TestResponseWriter_RequestID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/showcase", nil)
	req = req.WithContext(logging.ContextWithRequestID(req.Context(), "req-123"))
	w := httptest.NewRecorder()

	NewResponseWriter(w, req).NotFound("Replay not found")

	env := decodeEnvelope(t, w)
	if env.Error.RequestID != "req-123" || env.Meta.RequestID != "req-123" {
		t.Errorf("request ids = %q / %q", env.Error.RequestID, env.Meta.RequestID)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}
