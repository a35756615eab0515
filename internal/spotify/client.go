// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package spotify fetches track metadata with the client credentials flow.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/replayrhythms/internal/config"
)

// tokenRefreshMargin renews a cached token this long before it expires.
const tokenRefreshMargin = 60 * time.Second

const maxErrorBodySize = 64 * 1024

var (
	ErrNotConfigured = errors.New("Spotify credentials not configured") //nolint:staticcheck // user-facing message
	ErrTrackNotFound = errors.New("Track not found")                    //nolint:staticcheck // user-facing message
	ErrInvalidTrack  = errors.New("Invalid track ID or URL")            //nolint:staticcheck // user-facing message
)

var trackURLPattern = regexp.MustCompile(`track/([a-zA-Z0-9]+)`)

// Token is an app access token.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type Album struct {
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track is the subset of the Spotify track object returned to clients.
type Track struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []Artist          `json:"artists"`
	Album        Album             `json:"album"`
	PreviewURL   *string           `json:"preview_url"`
	DurationMS   int               `json:"duration_ms"`
	ExternalURLs map[string]string `json:"external_urls"`
	Popularity   int               `json:"popularity"`
}

// APIError is a non-success Spotify response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify request failed with status %d: %s", e.StatusCode, e.Body)
}

// Client caches one app token and refreshes it on demand.
//
// Thread Safety: Safe for concurrent use.
type Client struct {
	clientID     string
	clientSecret string
	accountsURL  string
	apiURL       string
	client       *http.Client
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewClient(cfg *config.SpotifyConfig) *Client {
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		accountsURL:  strings.TrimRight(cfg.AccountsURL, "/"),
		apiURL:       strings.TrimRight(cfg.APIURL, "/"),
		client:       &http.Client{Timeout: 10 * time.Second},
		now:          time.Now,
	}
}

// Configured reports whether client credentials are set.
func (c *Client) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// AccessToken returns a cached token, requesting a new one when the cached
// token expires within a minute.
func (c *Client) AccessToken(ctx context.Context) (*Token, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != "" && now.Add(tokenRefreshMargin).Before(c.expiresAt) {
		return &Token{AccessToken: c.token, ExpiresIn: int(c.expiresAt.Sub(now) / time.Second)}, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.accountsURL+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok Token
	if err := c.do(req, &tok); err != nil {
		return nil, fmt.Errorf("failed to get Spotify access token: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.New("spotify returned an empty access token")
	}

	c.token = tok.AccessToken
	c.expiresAt = now.Add(time.Duration(tok.ExpiresIn) * time.Second)
	return &tok, nil
}

// Track fetches a track by id.
func (c *Client) Track(ctx context.Context, id string) (*Track, error) {
	tok, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/v1/tracks/"+url.PathEscape(id), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create track request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	var track Track
	if err := c.do(req, &track); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrTrackNotFound
		}
		return nil, err
	}
	return &track, nil
}

// TrackID resolves a track id from either an explicit id or a Spotify URL
// such as https://open.spotify.com/track/<id>.
func TrackID(id, rawURL string) (string, error) {
	if id != "" {
		return id, nil
	}
	if rawURL == "" {
		return "", errors.New("Track ID or Spotify URL required") //nolint:staticcheck // user-facing message
	}
	m := trackURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", ErrInvalidTrack
	}
	return m[1], nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("spotify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode spotify response: %w", err)
	}
	return nil
}
