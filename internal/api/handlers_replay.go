// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/replayrhythms/internal/auth"
	"github.com/tomtom215/replayrhythms/internal/database"
	"github.com/tomtom215/replayrhythms/internal/logging"
	"github.com/tomtom215/replayrhythms/internal/models"
	"github.com/tomtom215/replayrhythms/internal/validation"
)

const (
	// multipartMemory is how much of a multipart body is kept in memory
	// before spilling to temporary files.
	multipartMemory = 8 << 20

	// signedURLExpiry is the lifetime of replay download links.
	signedURLExpiry = time.Hour

	showcaseLimit = 10
)

// uploadRequest is the validated non-file part of an upload form.
type uploadRequest struct {
	FileName   string `json:"file" validate:"required,replayfile"`
	Visibility string `json:"visibility" validate:"oneof=public unlisted private"`
}

// visibilityRequest is the body of PATCH /api/replays/{id}/visibility.
type visibilityRequest struct {
	Visibility string `json:"visibility" validate:"required,oneof=public private"`
}

// uploadResponse mirrors what the upload page reads.
type uploadResponse struct {
	Message  string              `json:"message"`
	FileName string              `json:"fileName"`
	FileSize int64               `json:"fileSize"`
	Path     string              `json:"path"`
	URL      string              `json:"url"`
	ReplayID string              `json:"replayId"`
	Status   models.ReplayStatus `json:"status"`
}

// replayStatusResponse is the body of GET /api/replay/{id}.
type replayStatusResponse struct {
	Status        models.ReplayStatus  `json:"status"`
	Message       string               `json:"message,omitempty"`
	Error         string               `json:"error,omitempty"`
	CheckFailures int                  `json:"checkFailures,omitempty"`
	Replay        models.ReplaySummary `json:"replay"`
}

// sanitizeFileName replaces every character outside [a-zA-Z0-9.-] with "_".
func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}

// UploadReplay stores a .replay file, records it and submits it to
// ballchasing.com.
//
// POST /api/upload-replay (multipart: file, visibility)
func (h *Handler) UploadReplay(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user, ok := currentUser(rw, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if r.ContentLength > h.cfg.Security.MaxUploadBytes {
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, ErrUploadTooLarge.Error())
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Security.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, ErrUploadTooLarge.Error())
			return
		}
		rw.BadRequest(ErrNoFile.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		rw.BadRequest(ErrNoFile.Error())
		return
	}
	defer file.Close()

	req := uploadRequest{FileName: header.Filename, Visibility: r.FormValue("visibility")}
	if req.Visibility == "" {
		req.Visibility = models.VisibilityPublic
	}
	if !validation.IsReplayFileName(req.FileName) {
		rw.BadRequest(ErrNotReplayFile.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		rw.BadRequest(ErrNoFile.Error())
		return
	}

	path := fmt.Sprintf("%s/%d-%s", user.ID, h.now().UnixMilli(), sanitizeFileName(req.FileName))
	bucket := h.objects.Bucket()
	obj, err := h.objects.Upload(ctx, bucket, path, "application/octet-stream", content, true)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("path", sanitizeLogValue(path)).Msg("Replay storage upload failed")
		rw.Error(http.StatusInternalServerError, ErrCodeExternalServiceFail, "Failed to store file")
		return
	}

	rec := &models.Replay{
		UserID:      user.ID,
		FileName:    req.FileName,
		StoragePath: obj.Path,
		FileSize:    int64(len(content)),
		Status:      models.ReplayStatusUploaded,
		Visibility:  req.Visibility,
	}
	if err := h.store.CreateReplay(ctx, rec); err != nil {
		rw.DatabaseError(err, "Failed to record upload in database")
		return
	}

	h.submitToBallchasing(ctx, rec, content)

	logging.Ctx(ctx).Info().
		Str("replay_id", rec.ID).
		Str("status", string(rec.Status)).
		Int64("file_size", rec.FileSize).
		Msg("Replay uploaded")

	rw.Success(uploadResponse{
		Message:  "File uploaded and sent for processing",
		FileName: req.FileName,
		FileSize: rec.FileSize,
		Path:     obj.Path,
		URL:      h.objects.PublicURL(bucket, obj.Path),
		ReplayID: rec.ID,
		Status:   rec.Status,
	})
}

// submitToBallchasing moves rec to processing, uploads the file and runs the
// immediate status check. Failures are recorded on the replay, never
// returned: the stored file and row are already committed.
func (h *Handler) submitToBallchasing(ctx context.Context, rec *models.Replay, content []byte) {
	rc := h.reconciler.WithSource("upload")

	if err := h.store.UpdateReplayStatus(ctx, rec.ID, models.ReplayStatusProcessing, nil); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("replay_id", rec.ID).Msg("Failed to mark replay processing")
		return
	}
	rec.Status = models.ReplayStatusProcessing

	if h.uploader == nil {
		h.markUploadFailed(ctx, rec, "Ballchasing API key not configured")
		return
	}
	res, err := h.uploader.Upload(ctx, rec.FileName, content, rec.Visibility)
	if err != nil {
		h.markUploadFailed(ctx, rec, err.Error())
		return
	}

	if err := h.store.SetBallchasingID(ctx, rec.ID, res.ID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("replay_id", rec.ID).Msg("Failed to store ballchasing id")
		return
	}
	rec.BallchasingID = &res.ID
	if res.Duplicate {
		logging.Ctx(ctx).Info().Str("replay_id", rec.ID).Str("ballchasing_id", res.ID).Msg("ballchasing.com already had this replay")
	}

	if _, err := rc.CheckAfterUpload(ctx, rec); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("replay_id", rec.ID).Msg("Initial status check could not be saved")
	}
}

func (h *Handler) markUploadFailed(ctx context.Context, rec *models.Replay, message string) {
	logging.Ctx(ctx).Error().Str("replay_id", rec.ID).Str("error", sanitizeLogValue(message)).Msg("ballchasing.com upload failed")
	failure := models.JSONMap{models.MetricsKeyError: message}
	if err := h.store.UpdateReplayStatus(ctx, rec.ID, models.ReplayStatusFailed, failure); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("replay_id", rec.ID).Msg("Failed to mark replay failed")
		return
	}
	rec.Status = models.ReplayStatusFailed
	rec.Metrics = failure
}

// GetReplay reports a replay's status, reconciling it with ballchasing.com
// when a check is due. Only the owner may read a replay that is not public.
//
// GET /api/replay/{id}
func (h *Handler) GetReplay(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	rec, err := h.store.GetReplay(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("Replay not found")
			return
		}
		rw.DatabaseError(err, "Failed to load replay")
		return
	}

	if rec.Visibility != models.VisibilityPublic && auth.UserID(ctx) != rec.UserID {
		h.security.LogReplayAccessDenied(auth.UserID(ctx), r.RemoteAddr, "replay", rec.ID)
		rw.Forbidden("Unauthorized access to replay")
		return
	}

	res, err := h.reconciler.Reconcile(ctx, rec)
	if err != nil {
		rw.DatabaseError(err, "Failed to update replay status")
		return
	}

	rw.Success(replayStatusResponse{
		Status:        res.Status,
		Message:       res.Message,
		Error:         res.Error,
		CheckFailures: res.CheckFailures,
		Replay:        res.Replay.Summary(),
	})
}

// ListReplays returns the caller's replays, newest first.
//
// GET /api/replays
func (h *Handler) ListReplays(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user, ok := currentUser(rw, r)
	if !ok {
		return
	}
	replays, err := h.store.ListUserReplays(r.Context(), user.ID)
	if err != nil {
		rw.DatabaseError(err, "Failed to load replays")
		return
	}
	rw.Success(map[string]interface{}{"replays": replays})
}

// Showcase returns the latest public, ready replays.
//
// GET /api/showcase
func (h *Handler) Showcase(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	replays, err := h.store.ListShowcaseReplays(r.Context(), showcaseLimit)
	if err != nil {
		rw.DatabaseError(err, "Failed to load showcase")
		return
	}
	summaries := make([]models.ReplaySummary, len(replays))
	for i := range replays {
		summaries[i] = replays[i].Summary()
	}
	rw.Success(map[string]interface{}{"replays": summaries})
}

// SetReplayVisibility lets the owner publish or hide a replay.
//
// PATCH /api/replays/{id}/visibility
func (h *Handler) SetReplayVisibility(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user, ok := currentUser(rw, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var req visibilityRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	rec, err := h.store.GetReplay(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("Replay not found")
			return
		}
		rw.DatabaseError(err, "Failed to load replay")
		return
	}
	if rec.UserID != user.ID {
		h.security.LogReplayAccessDenied(user.ID, r.RemoteAddr, "replay", rec.ID)
		rw.Forbidden("Unauthorized access to replay")
		return
	}

	if err := h.store.SetReplayVisibility(ctx, rec.ID, req.Visibility); err != nil {
		rw.DatabaseError(err, "Failed to update visibility")
		return
	}
	rw.Success(map[string]interface{}{"id": rec.ID, "visibility": req.Visibility})
}

// GetReplayURL returns a short-lived signed download URL for one of the
// caller's stored files.
//
// GET /api/get-replay-url?path=
func (h *Handler) GetReplayURL(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user, ok := currentUser(rw, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		rw.BadRequest("File path is required")
		return
	}
	if !strings.HasPrefix(path, user.ID+"/") {
		h.security.LogReplayAccessDenied(user.ID, r.RemoteAddr, "replay_file", path)
		rw.Forbidden("Access denied to this file")
		return
	}

	url, err := h.objects.SignedURL(r.Context(), h.objects.Bucket(), path, signedURLExpiry)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", sanitizeLogValue(path)).Msg("Failed to sign replay URL")
		rw.Error(http.StatusInternalServerError, ErrCodeExternalServiceFail, "Error generating file access URL")
		return
	}

	rw.Success(map[string]interface{}{
		"url":       url,
		"expiresAt": h.now().Add(signedURLExpiry).UTC().Format(time.RFC3339),
	})
}
