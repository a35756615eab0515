// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package config loads ReplayRhythms configuration.
//
// Loading order (later layers win):
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. .env.local and .env files, then the process environment
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
//	db, err := database.Open(ctx, cfg.Database)
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Supabase    SupabaseConfig    `koanf:"supabase"`
	Ballchasing BallchasingConfig `koanf:"ballchasing"`
	Recommend   RecommendConfig   `koanf:"recommend"`
	Spotify     SpotifyConfig     `koanf:"spotify"`
	Stripe      StripeConfig      `koanf:"stripe"`
	Notify      NotifyConfig      `koanf:"notify"`
	Admin       AdminConfig       `koanf:"admin"`
	Poller      PollerConfig      `koanf:"poller"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`
	// AppURL is the public origin of the web app, used for Stripe redirect
	// URLs, robots.txt and the sitemap.
	AppURL      string `koanf:"app_url"`
	Environment string `koanf:"environment"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	MigrateOnStart  bool          `koanf:"migrate_on_start"`
}

// SupabaseConfig holds the Supabase project settings. The service role key is
// used for Storage; the JWT secret verifies access tokens issued by Supabase Auth.
type SupabaseConfig struct {
	URL            string `koanf:"url"`
	AnonKey        string `koanf:"anon_key"`
	ServiceRoleKey string `koanf:"service_role_key"`
	JWTSecret      string `koanf:"jwt_secret"`
	StorageBucket  string `koanf:"storage_bucket"`
}

// BallchasingConfig holds ballchasing.com API settings.
type BallchasingConfig struct {
	APIKey        string        `koanf:"api_key"`
	BaseURL       string        `koanf:"base_url"`
	UploadTimeout time.Duration `koanf:"upload_timeout"`
	StatusTimeout time.Duration `koanf:"status_timeout"`
	// RequestsPerSecond throttles outbound calls; ballchasing limits per API key.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// Enabled reports whether an API key is configured.
func (b BallchasingConfig) Enabled() bool {
	return b.APIKey != ""
}

// RecommendConfig points at the external Python recommendation service.
type RecommendConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

type SpotifyConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	AccountsURL  string `koanf:"accounts_url"`
	APIURL       string `koanf:"api_url"`
}

// Enabled reports whether client credentials are configured.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

type StripeConfig struct {
	SecretKey     string `koanf:"secret_key"`
	WebhookSecret string `koanf:"webhook_secret"`
	PriceID       string `koanf:"price_id"`
}

// Enabled reports whether a Stripe secret key is configured.
func (s StripeConfig) Enabled() bool {
	return s.SecretKey != ""
}

// NotifyConfig holds outbound email settings (Resend).
type NotifyConfig struct {
	ResendAPIKey      string `koanf:"resend_api_key"`
	NotificationEmail string `koanf:"notification_email"`
	From              string `koanf:"from"`
}

// AdminConfig holds the admin email allowlist.
type AdminConfig struct {
	Emails []string `koanf:"emails"`
}

// IsAdmin reports whether email is on the allowlist (case-insensitive).
func (a AdminConfig) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	for _, e := range a.Emails {
		if strings.EqualFold(strings.TrimSpace(e), email) {
			return true
		}
	}
	return false
}

// PollerConfig controls the background reconciliation of unsettled replays.
type PollerConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Schedule  string `koanf:"schedule"`
	BatchSize int    `koanf:"batch_size"`
}

// SecurityConfig holds CORS and request limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	// UploadRateLimit caps replay uploads per IP per RateLimitWindow.
	UploadRateLimit int `koanf:"upload_rate_limit"`
	// FeedbackRateLimit caps feedback submissions per IP per RateLimitWindow.
	FeedbackRateLimit int   `koanf:"feedback_rate_limit"`
	MaxUploadBytes    int64 `koanf:"max_upload_bytes"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional YAML file, env files
// and the environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
