// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/replayrhythms/internal/database"
	"github.com/tomtom215/replayrhythms/internal/logging"
	"github.com/tomtom215/replayrhythms/internal/models"
)

type featureRequestCreate struct {
	Title       string `json:"title" validate:"required,min=5,max=200"`
	Description string `json:"description" validate:"required,min=10,max=2000"`
}

// pageParams reads limit and offset, clamping limit to the database bounds.
func pageParams(r *http.Request) (limit, offset int) {
	limit = getIntParam(r, "limit", database.DefaultPageSize)
	if limit <= 0 {
		limit = database.DefaultPageSize
	}
	if limit > database.MaxPageSize {
		limit = database.MaxPageSize
	}
	offset = getIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListFeatureRequests returns feature requests, most voted first.
//
// GET /api/feature-requests?status=&priority=&limit=&offset=
func (h *Handler) ListFeatureRequests(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset := pageParams(r)
	filter := models.FeatureRequestFilter{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
		Limit:    limit,
		Offset:   offset,
	}

	items, total, err := h.store.ListFeatureRequests(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err, "Failed to fetch feature requests")
		return
	}
	rw.SuccessWithPagination(
		map[string]interface{}{"featureRequests": items},
		NewPagination(total, len(items), limit, offset),
	)
}

// CreateFeatureRequest opens a new feature request.
//
// POST /api/feature-requests
func (h *Handler) CreateFeatureRequest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	user, ok := currentUser(rw, r)
	if !ok {
		return
	}
	var req featureRequestCreate
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	fr := &models.FeatureRequest{
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   user.ID,
	}
	if err := h.store.CreateFeatureRequest(r.Context(), fr); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			rw.Conflict("A feature request with this title already exists")
			return
		}
		rw.DatabaseError(err, "Failed to create feature request")
		return
	}

	logging.Ctx(r.Context()).Info().Str("feature_request_id", fr.ID).Msg("Feature request created")
	rw.Success(map[string]interface{}{
		"message":        "Feature request created successfully",
		"featureRequest": fr,
	})
}

// VoteFeatureRequest adds the caller's vote.
//
// POST /api/feature-requests/{id}/vote
func (h *Handler) VoteFeatureRequest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	user, ok := currentUser(rw, r)
	if !ok {
		return
	}

	vote, count, err := h.store.AddVote(r.Context(), chi.URLParam(r, "id"), user.ID)
	switch {
	case err == nil:
	case errors.Is(err, database.ErrNotFound):
		rw.NotFound("Feature request not found")
		return
	case errors.Is(err, database.ErrDuplicate):
		rw.Conflict("You have already voted for this feature")
		return
	default:
		rw.DatabaseError(err, "Failed to cast vote")
		return
	}

	rw.Success(map[string]interface{}{
		"message":      "Vote cast successfully",
		"voteId":       vote.ID,
		"newVoteCount": count,
	})
}

// UnvoteFeatureRequest removes the caller's vote.
//
// DELETE /api/feature-requests/{id}/vote
func (h *Handler) UnvoteFeatureRequest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	user, ok := currentUser(rw, r)
	if !ok {
		return
	}

	count, err := h.store.RemoveVote(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("Vote not found")
			return
		}
		rw.DatabaseError(err, "Failed to remove vote")
		return
	}

	rw.Success(map[string]interface{}{
		"message":      "Vote removed successfully",
		"newVoteCount": count,
	})
}
