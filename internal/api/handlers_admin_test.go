// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package api

import (
	"net/http"
	"testing"

	"github.com/tomtom215/replayrhythms/internal/models"
)

func seedFeedback(t *testing.T, env *testEnv, kind string) *models.Feedback {
	t.Helper()
	fb := &models.Feedback{UserID: testUserID, Type: kind, Message: "Something worth reading", Context: models.JSONMap{}}
	if err := env.store.CreateFeedback(t.Context(), fb); err != nil {
		t.Fatalf("seed feedback: %v", err)
	}
	return fb
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/admin/feedback", nil, "")
	expectError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized, "Unauthorized")

	w = env.do(t, http.MethodGet, "/api/admin/feedback", nil, token(t, testUserID, testEmail))
	expectError(t, w, http.StatusForbidden, ErrCodeForbidden, "Unauthorized")

	w = env.do(t, http.MethodGet, "/api/admin/feedback", nil, token(t, adminUserID, "ADMIN@example.com"))
	if w.Code != http.StatusOK {
		t.Errorf("admin status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestAdminListFeedback(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		seedFeedback(t, env, "bug")
	}
	seedFeedback(t, env, "feature")

	w := env.do(t, http.MethodGet, "/api/admin/feedback?type=bug&limit=2", nil, token(t, adminUserID, adminEmail))
	var resp struct {
		Feedback []models.Feedback `json:"feedback"`
	}
	e := decodeData(t, w, &resp)
	if len(resp.Feedback) != 2 {
		t.Errorf("page = %d items, want 2", len(resp.Feedback))
	}
	p := e.Meta.Pagination
	if p == nil || p.Total != 3 || p.Limit != 2 || !p.HasMore {
		t.Errorf("pagination = %+v", p)
	}
}

func TestAdminUpdateFeedback(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	fb := seedFeedback(t, env, "bug")
	admin := token(t, adminUserID, adminEmail)

	w := env.do(t, http.MethodPatch, "/api/admin/feedback/missing", map[string]string{"status": "reviewing"}, admin)
	expectError(t, w, http.StatusNotFound, ErrCodeNotFound, "Feedback not found")

	w = env.do(t, http.MethodPatch, "/api/admin/feedback/"+fb.ID, map[string]string{"status": "archived"}, admin)
	expectError(t, w, http.StatusBadRequest, ErrCodeValidationFailed, "")

	w = env.do(t, http.MethodPatch, "/api/admin/feedback/"+fb.ID, map[string]interface{}{
		"status":         "planned",
		"priority":       "critical",
		"internal_notes": "repro on Windows only",
		"admin_response": map[string]string{"response_text": "Thanks, fix is planned."},
	}, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Message  string          `json:"message"`
		Feedback models.Feedback `json:"feedback"`
	}
	decodeData(t, w, &resp)
	if resp.Message != "Feedback updated successfully" {
		t.Errorf("message = %q", resp.Message)
	}
	got := resp.Feedback
	if got.Status != "planned" || got.Priority != "critical" {
		t.Errorf("status/priority = %s/%s", got.Status, got.Priority)
	}
	if got.InternalNotes == nil || *got.InternalNotes != "repro on Windows only" {
		t.Errorf("internal notes = %v", got.InternalNotes)
	}
	if len(got.Responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(got.Responses))
	}
	r := got.Responses[0]
	if r.AdminUserID != adminUserID || r.ResponseType != models.FeedbackResponseComment || r.ResponseText != "Thanks, fix is planned." {
		t.Errorf("response = %+v", r)
	}

	w = env.do(t, http.MethodPatch, "/api/admin/feedback/"+fb.ID, map[string]interface{}{
		"admin_response": map[string]string{"response_text": "", "response_type": "comment"},
	}, admin)
	expectError(t, w, http.StatusBadRequest, ErrCodeValidationFailed, "")
}

func TestAdminFeatureRequests(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	fr := createFeature(t, env, "Replay heatmaps")
	env.do(t, http.MethodPost, "/api/feature-requests/"+fr.ID+"/vote", nil, token(t, otherUserID, "other@example.com"))
	admin := token(t, adminUserID, adminEmail)
	path := "/api/admin/feature-requests/" + fr.ID

	w := env.do(t, http.MethodGet, path, nil, admin)
	var got struct {
		FeatureRequest models.FeatureRequest `json:"featureRequest"`
	}
	decodeData(t, w, &got)
	if len(got.FeatureRequest.Votes) != 1 || got.FeatureRequest.Votes[0].UserID != otherUserID {
		t.Errorf("votes = %+v", got.FeatureRequest.Votes)
	}

	w = env.do(t, http.MethodPatch, path, map[string]string{"estimated_effort": "huge"}, admin)
	expectError(t, w, http.StatusBadRequest, ErrCodeValidationFailed, "")

	w = env.do(t, http.MethodPatch, path, map[string]string{"status": "in-progress", "estimated_effort": "large"}, admin)
	decodeData(t, w, &got)
	if got.FeatureRequest.Status != "in-progress" || got.FeatureRequest.EstimatedEffort == nil || *got.FeatureRequest.EstimatedEffort != "large" {
		t.Errorf("updated = %+v", got.FeatureRequest)
	}

	w = env.do(t, http.MethodDelete, path, nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = env.do(t, http.MethodGet, path, nil, admin)
	expectError(t, w, http.StatusNotFound, ErrCodeNotFound, "Feature request not found")
}
