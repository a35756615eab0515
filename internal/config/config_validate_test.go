// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Database.URL = testDatabaseURL
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults with database", mutate: func(c *Config) {}},
		{name: "missing database", mutate: func(c *Config) { c.Database.URL = "" }, wantErr: "DATABASE_URL is required"},
		{name: "mysql scheme", mutate: func(c *Config) { c.Database.URL = "mysql://localhost/db" }, wantErr: "scheme must be postgres"},
		{name: "postgres without host", mutate: func(c *Config) { c.Database.URL = "postgres:///replayrhythms" }, wantErr: "DATABASE_URL host is required"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "HTTP_PORT"},
		{name: "supabase ftp", mutate: func(c *Config) { c.Supabase.URL = "ftp://x.supabase.co" }, wantErr: "SUPABASE_URL"},
		{name: "stripe without price", mutate: func(c *Config) { c.Stripe.SecretKey = "sk_test_x" }, wantErr: "STRIPE_SUBSCRIPTION_PRICE_ID"},
		{name: "notification without resend", mutate: func(c *Config) { c.Notify.NotificationEmail = "me@example.com" }, wantErr: "RESEND_API_KEY"},
		{name: "bad cron", mutate: func(c *Config) { c.Poller.Schedule = "every minute" }, wantErr: "POLLER_SCHEDULE"},
		{name: "bad cron ignored when disabled", mutate: func(c *Config) { c.Poller.Enabled = false; c.Poller.Schedule = "nope" }},
		{name: "zero rate limit", mutate: func(c *Config) { c.Security.RateLimitRequests = 0 }, wantErr: "RATE_LIMIT_REQUESTS"},
		{name: "zero feedback rate limit", mutate: func(c *Config) { c.Security.FeedbackRateLimit = 0 }, wantErr: "FEEDBACK_RATE_LIMIT"},
		{name: "log level off", mutate: func(c *Config) { c.Logging.Level = "OFF" }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "LOG_LEVEL"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "LOG_FORMAT"},
		{name: "python api with query", mutate: func(c *Config) { c.Recommend.URL = "http://py:8000?x=1" }, wantErr: "PYTHON_API_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAdminConfig_IsAdmin(t *testing.T) {
	t.Parallel()

	a := AdminConfig{Emails: []string{"Admin@Example.com"}}
	if !a.IsAdmin("admin@example.com") {
		t.Error("expected match")
	}
	if a.IsAdmin("") {
		t.Error("empty email must never be admin")
	}
	if a.IsAdmin("someone@example.com") {
		t.Error("unexpected match")
	}
}
