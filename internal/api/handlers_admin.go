// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/replayrhythms/internal/auth"
	"github.com/tomtom215/replayrhythms/internal/database"
	"github.com/tomtom215/replayrhythms/internal/models"
)

type featureRequestPatch struct {
	Status              *string `json:"status" validate:"omitempty,oneof=considering planned in-progress completed rejected"`
	Priority            *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	ImplementationNotes *string `json:"implementation_notes" validate:"omitempty,max=5000"`
	EstimatedEffort     *string `json:"estimated_effort" validate:"omitempty,oneof=small medium large"`
	TargetRelease       *string `json:"target_release" validate:"omitempty,max=100"`
}

type adminResponse struct {
	ResponseText string `json:"response_text" validate:"required,min=1,max=2000"`
	ResponseType string `json:"response_type" validate:"omitempty,oneof=comment status-update resolution"`
}

type feedbackPatch struct {
	Status        *string        `json:"status" validate:"omitempty,oneof=open reviewing planned in-progress completed dismissed"`
	Priority      *string        `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	InternalNotes *string        `json:"internal_notes" validate:"omitempty,max=5000"`
	AdminResponse *adminResponse `json:"admin_response"`
}

// adminID returns the admin's user id; RequireAdmin guarantees a user.
func adminID(r *http.Request) string {
	if u := auth.UserFromContext(r.Context()); u != nil {
		return u.ID
	}
	return ""
}

// AdminGetFeatureRequest returns one feature request with its votes.
//
// GET /api/admin/feature-requests/{id}
func (h *Handler) AdminGetFeatureRequest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	fr, err := h.store.GetFeatureRequest(r.Context(), chi.URLParam(r, "id"), true)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("Feature request not found")
			return
		}
		rw.DatabaseError(err, "Failed to fetch feature request")
		return
	}
	rw.Success(map[string]interface{}{"featureRequest": fr})
}

// AdminUpdateFeatureRequest changes status, priority and planning fields.
//
// PATCH /api/admin/feature-requests/{id}
func (h *Handler) AdminUpdateFeatureRequest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	var req featureRequestPatch
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	err := h.store.UpdateFeatureRequest(r.Context(), id, models.FeatureRequestUpdate{
		Status:              req.Status,
		Priority:            req.Priority,
		ImplementationNotes: req.ImplementationNotes,
		EstimatedEffort:     req.EstimatedEffort,
		TargetRelease:       req.TargetRelease,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("Feature request not found")
			return
		}
		rw.DatabaseError(err, "Failed to update feature request")
		return
	}
	h.security.LogAdminAction(adminID(r), "update", "feature_request", id)

	fr, err := h.store.GetFeatureRequest(r.Context(), id, true)
	if err != nil {
		rw.DatabaseError(err, "Failed to fetch feature request")
		return
	}
	rw.Success(map[string]interface{}{
		"message":        "Feature request updated successfully",
		"featureRequest": fr,
	})
}

// AdminDeleteFeatureRequest deletes a feature request and its votes.
//
// DELETE /api/admin/feature-requests/{id}
func (h *Handler) AdminDeleteFeatureRequest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteFeatureRequest(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("Feature request not found")
			return
		}
		rw.DatabaseError(err, "Failed to delete feature request")
		return
	}
	h.security.LogAdminAction(adminID(r), "delete", "feature_request", id)

	rw.Success(map[string]string{"message": "Feature request deleted successfully"})
}

// AdminListFeedback returns all feedback with responses.
//
// GET /api/admin/feedback?type=&status=&priority=&category=&limit=&offset=
func (h *Handler) AdminListFeedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q := r.URL.Query()
	limit, offset := pageParams(r)
	items, total, err := h.store.ListFeedback(r.Context(), models.FeedbackFilter{
		Type:     q.Get("type"),
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Category: q.Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		rw.DatabaseError(err, "Failed to fetch feedback")
		return
	}
	rw.SuccessWithPagination(
		map[string]interface{}{"feedback": items},
		NewPagination(total, len(items), limit, offset),
	)
}

// AdminGetFeedback returns one feedback item with its responses.
//
// GET /api/admin/feedback/{id}
func (h *Handler) AdminGetFeedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	fb, err := h.store.GetFeedback(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("Feedback not found")
			return
		}
		rw.DatabaseError(err, "Failed to fetch feedback")
		return
	}
	rw.Success(map[string]interface{}{"feedback": fb})
}

// AdminUpdateFeedback triages feedback and optionally posts a response.
//
// PATCH /api/admin/feedback/{id}
func (h *Handler) AdminUpdateFeedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	var req feedbackPatch
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	err := h.store.UpdateFeedback(r.Context(), id, models.FeedbackUpdate{
		Status:        req.Status,
		Priority:      req.Priority,
		InternalNotes: req.InternalNotes,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("Feedback not found")
			return
		}
		rw.DatabaseError(err, "Failed to update feedback")
		return
	}

	if req.AdminResponse != nil {
		resp := &models.FeedbackResponse{
			FeedbackID:   id,
			AdminUserID:  adminID(r),
			ResponseText: req.AdminResponse.ResponseText,
			ResponseType: req.AdminResponse.ResponseType,
		}
		if err := h.store.AddFeedbackResponse(r.Context(), resp); err != nil {
			rw.DatabaseError(err, "Failed to add admin response")
			return
		}
	}
	h.security.LogAdminAction(adminID(r), "update", "feedback", id)

	fb, err := h.store.GetFeedback(r.Context(), id)
	if err != nil {
		rw.DatabaseError(err, "Failed to fetch feedback")
		return
	}
	rw.Success(map[string]interface{}{
		"message":  "Feedback updated successfully",
		"feedback": fb,
	})
}
