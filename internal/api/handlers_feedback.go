// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package api

import (
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/replayrhythms/internal/auth"
	"github.com/tomtom215/replayrhythms/internal/logging"
	"github.com/tomtom215/replayrhythms/internal/models"
)

// quickFeedbackLimit caps GET /api/feedback/quick.
const quickFeedbackLimit = 100

type feedbackContext struct {
	Page      string `json:"page"`
	UserAgent string `json:"userAgent"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"sessionId"`
}

type feedbackRequest struct {
	Type     string           `json:"type" validate:"required,oneof=bug feature improvement appreciation general"`
	Category string           `json:"category" validate:"max=100"`
	Message  string           `json:"message" validate:"required,min=10,max=2000"`
	Rating   *int             `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Context  *feedbackContext `json:"context"`
}

type quickFeedbackRequest struct {
	Context   string `json:"context" validate:"required,min=1,max=100"`
	Rating    string `json:"rating" validate:"required,oneof=helpful not-helpful thumbs-up thumbs-down"`
	PageURL   string `json:"pageUrl" validate:"omitempty,url"`
	SessionID string `json:"sessionId" validate:"max=100"`
}

// SubmitFeedback stores feedback from the caller.
//
// POST /api/feedback
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	user, ok := currentUser(rw, r)
	if !ok {
		return
	}
	var req feedbackRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	fctx := req.Context
	if fctx == nil {
		fctx = &feedbackContext{}
	}
	if fctx.Page == "" {
		fctx.Page = r.Referer()
	}
	if fctx.UserAgent == "" {
		fctx.UserAgent = r.UserAgent()
	}
	if fctx.Timestamp == "" {
		fctx.Timestamp = h.now().UTC().Format(time.RFC3339)
	}

	fb := &models.Feedback{
		UserID:   user.ID,
		Type:     req.Type,
		Category: optionalString(req.Category),
		Message:  req.Message,
		Rating:   req.Rating,
		Context: models.JSONMap{
			"page":      fctx.Page,
			"userAgent": fctx.UserAgent,
			"timestamp": fctx.Timestamp,
		},
	}
	if fctx.SessionID != "" {
		fb.Context["sessionId"] = fctx.SessionID
	}

	if err := h.store.CreateFeedback(r.Context(), fb); err != nil {
		rw.DatabaseError(err, "Failed to submit feedback")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("feedback_id", fb.ID).
		Str("type", fb.Type).
		Msg("Feedback submitted")
	rw.Success(map[string]string{
		"message": "Feedback submitted successfully",
		"id":      fb.ID,
	})
}

// ListFeedback returns the caller's own feedback.
//
// GET /api/feedback
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	user, ok := currentUser(rw, r)
	if !ok {
		return
	}
	items, err := h.store.ListUserFeedback(r.Context(), user.ID)
	if err != nil {
		rw.DatabaseError(err, "Failed to fetch feedback")
		return
	}
	rw.Success(map[string]interface{}{"feedback": items})
}

// SubmitQuickFeedback records a one-click rating. Anonymous callers get a
// generated session id.
//
// POST /api/feedback/quick
func (h *Handler) SubmitQuickFeedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req quickFeedbackRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	pageURL := req.PageURL
	if pageURL == "" {
		pageURL = r.Referer()
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = anonymousSessionID(h.now())
	}

	q := &models.QuickFeedback{
		Context:   req.Context,
		Rating:    req.Rating,
		PageURL:   optionalString(pageURL),
		SessionID: sessionID,
	}
	if u := auth.UserFromContext(r.Context()); u != nil {
		q.UserID = &u.ID
	}

	if err := h.store.CreateQuickFeedback(r.Context(), q); err != nil {
		rw.DatabaseError(err, "Failed to submit quick feedback")
		return
	}
	rw.Success(map[string]string{
		"message":   "Quick feedback submitted successfully",
		"id":        q.ID,
		"sessionId": sessionID,
	})
}

// ListQuickFeedback returns recent quick feedback, optionally filtered.
//
// GET /api/feedback/quick?context=&sessionId=
func (h *Handler) ListQuickFeedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q := r.URL.Query()
	items, err := h.store.ListQuickFeedback(r.Context(), q.Get("context"), q.Get("sessionId"), quickFeedbackLimit)
	if err != nil {
		rw.DatabaseError(err, "Failed to fetch quick feedback")
		return
	}
	rw.Success(map[string]interface{}{"feedback": items})
}

// anonymousSessionID returns anon_<unixMillis>_<random base36>.
func anonymousSessionID(now time.Time) string {
	suffix := strconv.FormatUint(rand.Uint64(), 36)
	if len(suffix) > 9 {
		suffix = suffix[:9]
	}
	return "anon_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}
