// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package config

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/replayrhythms/internal/logging"
)

// Validate checks that required configuration is present and consistent.
// Optional integrations are only checked for internal consistency; handlers
// report them as not configured at request time.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateSupabase(); err != nil {
		return err
	}
	if err := c.validateIntegrations(); err != nil {
		return err
	}
	if err := c.validatePoller(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.AppURL != "" {
		if err := validateHTTPURL(c.Server.AppURL, "APP_URL"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if err := validatePostgresURL(c.Database.URL, "DATABASE_URL"); err != nil {
		return err
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database connection limits must not be negative")
	}
	return nil
}

func (c *Config) validateSupabase() error {
	if c.Supabase.URL == "" {
		return nil
	}
	if err := validateHTTPURL(c.Supabase.URL, "SUPABASE_URL"); err != nil {
		return err
	}
	if c.Supabase.StorageBucket == "" {
		return fmt.Errorf("SUPABASE_STORAGE_BUCKET must not be empty")
	}
	return nil
}

func (c *Config) validateIntegrations() error {
	if err := validateHTTPURL(c.Ballchasing.BaseURL, "BALLCHASING_BASE_URL"); err != nil {
		return err
	}
	if c.Ballchasing.RequestsPerSecond <= 0 {
		return fmt.Errorf("BALLCHASING_REQUESTS_PER_SECOND must be positive")
	}
	if c.Recommend.URL != "" {
		if err := validateHTTPURL(c.Recommend.URL, "PYTHON_API_URL"); err != nil {
			return err
		}
	}
	if c.Stripe.Enabled() && c.Stripe.PriceID == "" {
		return fmt.Errorf("STRIPE_SUBSCRIPTION_PRICE_ID is required when STRIPE_SECRET_KEY is set")
	}
	if c.Notify.NotificationEmail != "" && c.Notify.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY is required when NOTIFICATION_EMAIL is set")
	}
	return nil
}

func (c *Config) validatePoller() error {
	if !c.Poller.Enabled {
		return nil
	}
	if _, err := cron.ParseStandard(c.Poller.Schedule); err != nil {
		return fmt.Errorf("POLLER_SCHEDULE is invalid: %w", err)
	}
	if c.Poller.BatchSize < 1 {
		return fmt.Errorf("POLLER_BATCH_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitRequests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.Security.UploadRateLimit < 1 {
		return fmt.Errorf("UPLOAD_RATE_LIMIT must be at least 1")
	}
	if c.Security.FeedbackRateLimit < 1 {
		return fmt.Errorf("FEEDBACK_RATE_LIMIT must be at least 1")
	}
	if c.Security.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic, disabled; got: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %s", c.Logging.Format)
	}
	return nil
}
