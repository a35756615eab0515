// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package api

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/replayrhythms/internal/auth"
	"github.com/tomtom215/replayrhythms/internal/logging"
	"github.com/tomtom215/replayrhythms/internal/notify"
	"github.com/tomtom215/replayrhythms/internal/validation"
)

// readinessTimeout bounds the database ping of /health/ready.
const readinessTimeout = 2 * time.Second

// Crawlable pages, in sitemap order.
var publicPages = []string{"/", "/showcase", "/upload-replay"}

var disallowedPaths = []string{"/api/", "/payment/", "/replays", "/auth/", "/error", "/login"}

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status   string  `json:"status"`
	Database string  `json:"database,omitempty"`
	Uptime   float64 `json:"uptime"`
}

// Health is the liveness probe. It never touches dependencies.
//
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(HealthResponse{
		Status: "healthy",
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// Ready is the readiness probe: the database must answer a ping.
//
// GET /health/ready
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Database unavailable",
			HealthResponse{Status: "unhealthy", Database: "disconnected", Uptime: time.Since(h.startTime).Seconds()})
		return
	}
	rw.Success(HealthResponse{
		Status:   "ready",
		Database: "connected",
		Uptime:   time.Since(h.startTime).Seconds(),
	})
}

func (h *Handler) appURL() string {
	return strings.TrimRight(h.cfg.Server.AppURL, "/")
}

// RobotsTxt serves crawler rules.
//
// GET /robots.txt
func (h *Handler) RobotsTxt(w http.ResponseWriter, _ *http.Request) {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	for _, p := range publicPages {
		b.WriteString("Allow: " + p + "\n")
	}
	for _, p := range disallowedPaths {
		b.WriteString("Disallow: " + p + "\n")
	}
	b.WriteString("\nSitemap: " + h.appURL() + "/sitemap.xml\n")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(b.String()))
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap lists the public pages under APP_URL.
//
// GET /sitemap.xml
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	lastMod := h.now().UTC().Format("2006-01-02")
	set := sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for i, p := range publicPages {
		priority := "0.8"
		if i == 0 {
			priority = "1.0"
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.appURL() + p,
			LastMod:    lastMod,
			ChangeFreq: "weekly",
			Priority:   priority,
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		NewResponseWriter(w, r).InternalError("Failed to render sitemap")
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}

// AuthRedirect sends the browser to next when it is a safe relative path,
// otherwise to the home page.
//
// GET /auth/redirect?next=
func (h *Handler) AuthRedirect(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("next")
	if !validation.IsValidRedirectPath(target) {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// TrackResumeVisit emails the visitor details stored in the resume cookie.
// A missing cookie still sends a notification carrying only the time.
//
// POST /api/track-resume-visit
func (h *Handler) TrackResumeVisit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if !h.notifier.Configured() {
		rw.InternalError(notify.ErrNotConfigured.Error())
		return
	}

	// Without the cookie the visit is still reported, stamped with the
	// current time only.
	visitor := &notify.VisitorData{Timestamp: h.now().UTC().Format(time.RFC3339)}
	if cookie, err := r.Cookie(notify.VisitorCookie); err == nil && cookie.Value != "" {
		if visitor, err = notify.ParseVisitorCookie(cookie.Value); err != nil {
			rw.BadRequest(notify.ErrInvalidVisitorData.Error())
			return
		}
	}

	var email string
	if u := auth.UserFromContext(r.Context()); u != nil {
		email = u.Email
	}

	if _, err := h.notifier.SendResumeVisit(r.Context(), visitor, email); err != nil {
		if errors.Is(err, notify.ErrNotConfigured) {
			rw.InternalError(notify.ErrNotConfigured.Error())
			return
		}
		rw.ExternalServiceError("resend", err, "Failed to send notification")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     notify.VisitorCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	rw.Success(map[string]bool{"success": true})
}
