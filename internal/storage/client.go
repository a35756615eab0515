// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package storage is a minimal client for Supabase Storage, used to keep the
// original replay files uploaded by users.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/replayrhythms/internal/config"
)

// ErrNotConfigured is returned when the Supabase URL or service role key is missing.
var ErrNotConfigured = errors.New("supabase storage is not configured")

const maxErrorBodySize = 64 * 1024

// Error is a non-success response from the Storage API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage request failed with status %d: %s", e.StatusCode, e.Message)
}

// UploadedObject identifies a stored object.
type UploadedObject struct {
	Bucket string
	Path   string
	Key    string
}

// Client talks to {SUPABASE_URL}/storage/v1 with the service role key.
type Client struct {
	baseURL string
	key     string
	bucket  string
	client  *http.Client
}

// NewClient creates a client. Bucket is the default used by callers that pass "".
func NewClient(cfg *config.SupabaseConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		key:     cfg.ServiceRoleKey,
		bucket:  cfg.StorageBucket,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Bucket returns the default bucket.
func (c *Client) Bucket() string {
	return c.bucket
}

func (c *Client) configured() bool {
	return c.baseURL != "" && c.key != ""
}

// Upload stores body at bucket/path. With upsert an existing object is replaced.
func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, body []byte, upsert bool) (*UploadedObject, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}
	bucket = c.bucketOr(bucket)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL("object", bucket, path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	c.authorize(req)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", strconv.FormatBool(upsert))

	var out struct {
		Key string `json:"Key"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &UploadedObject{Bucket: bucket, Path: path, Key: out.Key}, nil
}

// PublicURL returns the URL of an object in a public bucket. No request is made.
func (c *Client) PublicURL(bucket, path string) string {
	return c.objectURL("object/public", c.bucketOr(bucket), path)
}

// SignedURL creates a time-limited download URL for an object in a private bucket.
func (c *Client) SignedURL(ctx context.Context, bucket, path string, expiresIn time.Duration) (string, error) {
	if !c.configured() {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]int64{"expiresIn": int64(expiresIn / time.Second)})
	if err != nil {
		return "", fmt.Errorf("failed to encode sign request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL("object/sign", c.bucketOr(bucket), path), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create sign request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		SignedURL string `json:"signedURL"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.SignedURL == "" {
		return "", errors.New("storage returned an empty signed URL")
	}
	if strings.HasPrefix(out.SignedURL, "http://") || strings.HasPrefix(out.SignedURL, "https://") {
		return out.SignedURL, nil
	}
	return c.baseURL + "/storage/v1" + ensureLeadingSlash(out.SignedURL), nil
}

func (c *Client) bucketOr(bucket string) string {
	if bucket == "" {
		return c.bucket
	}
	return bucket
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
}

// objectURL escapes each path segment but keeps the separators.
func (c *Client) objectURL(kind, bucket, path string) string {
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/storage/v1/%s/%s/%s", c.baseURL, kind, url.PathEscape(bucket), strings.Join(segments, "/"))
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("storage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode storage response: %w", err)
	}
	return nil
}

// errorMessage extracts "message" (or "error") from a Storage error body,
// falling back to the raw text.
func errorMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return fmt.Sprintf("(failed to read body: %v)", err)
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}

func ensureLeadingSlash(s string) string {
	if strings.HasPrefix(s, "/") {
		return s
	}
	return "/" + s
}
