// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/replayrhythms/internal/cache"
	"github.com/tomtom215/replayrhythms/internal/logging"
	"github.com/tomtom215/replayrhythms/internal/recommend"
	"github.com/tomtom215/replayrhythms/internal/spotify"
)

// recommendationRequest is the body of POST /api/recommendations.
type recommendationRequest struct {
	PlayerID   string          `json:"player_id" validate:"required"`
	ReplayData json.RawMessage `json:"replay_data"`
	TopN       int             `json:"top_n" validate:"gte=0,lte=50"`
}

// Recommendations forwards a recommendation request to the Python service.
//
// POST /api/recommendations
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req recommendationRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	if !h.recommender.Configured() {
		rw.ServiceUnavailable("Recommendation service is not configured")
		return
	}

	data, err := h.recommender.Recommend(r.Context(), recommend.Request{
		PlayerID:   req.PlayerID,
		ReplayData: req.ReplayData,
		TopN:       req.TopN,
	})
	if err != nil {
		writeRecommendError(rw, r, err)
		return
	}
	rw.Success(data)
}

// RecommendationsTest proxies the service's sample endpoint.
//
// GET /api/recommendations?player_id=&top_n=
func (h *Handler) RecommendationsTest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		rw.BadRequest("Missing required parameter: player_id")
		return
	}
	if !h.recommender.Configured() {
		rw.ServiceUnavailable("Recommendation service is not configured")
		return
	}

	data, err := h.recommender.Test(r.Context(), playerID, getIntParam(r, "top_n", recommend.DefaultTopN))
	if err != nil {
		writeRecommendError(rw, r, err)
		return
	}
	rw.Success(data)
}

func writeRecommendError(rw *ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).Msg("Recommendation proxy failed")

	var upstream *recommend.UpstreamError
	switch {
	case errors.As(err, &upstream):
		var details interface{} = upstream.Body
		if json.Valid([]byte(upstream.Body)) {
			details = json.RawMessage(upstream.Body)
		}
		rw.ErrorWithDetails(upstream.StatusCode, ErrCodeExternalServiceFail, upstream.Error(), details)
	case errors.Is(err, recommend.ErrTimeout):
		rw.GatewayTimeout("Request timed out. The recommendation service is taking too long to respond.")
	case errors.Is(err, recommend.ErrUnavailable):
		rw.ServiceUnavailable("Unable to connect to recommendation service. Please ensure the Python API is running.")
	case errors.Is(err, recommend.ErrNotConfigured):
		rw.ServiceUnavailable("Recommendation service is not configured")
	default:
		rw.InternalError("Internal server error")
	}
}

// SpotifyAuth returns an app access token for the web player.
//
// POST /api/spotify/auth
func (h *Handler) SpotifyAuth(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.spotify.Configured() {
		rw.ServiceUnavailable(spotify.ErrNotConfigured.Error())
		return
	}
	tok, err := h.spotify.AccessToken(r.Context())
	if err != nil {
		rw.ExternalServiceError("spotify", err, "Failed to get Spotify access token")
		return
	}
	rw.Success(tok)
}

// SpotifyTrack looks up one track by id or Spotify URL. Successful lookups
// are cached for trackCacheTTL.
//
// GET /api/spotify/track?id=|url=
func (h *Handler) SpotifyTrack(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := spotify.TrackID(r.URL.Query().Get("id"), r.URL.Query().Get("url"))
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if !h.spotify.Configured() {
		rw.ServiceUnavailable(spotify.ErrNotConfigured.Error())
		return
	}

	key := cache.GenerateKey("spotify:track", id)
	if track, ok := h.tracks.Get(key); ok {
		rw.Success(track)
		return
	}

	track, err := h.spotify.Track(r.Context(), id)
	if err != nil {
		if errors.Is(err, spotify.ErrTrackNotFound) {
			rw.NotFound(spotify.ErrTrackNotFound.Error())
			return
		}
		rw.ExternalServiceError("spotify", err, "Failed to fetch track details")
		return
	}
	h.tracks.Set(key, track)
	rw.Success(track)
}
