// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/replayrhythms/config.yaml",
	"/etc/replayrhythms/config.yml",
}

// DefaultEnvFiles are loaded into the process environment before the env
// layer is read. Variables already set are never overwritten, so the first
// file wins over later ones.
var DefaultEnvFiles = []string{".env.local", ".env"}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     60 * time.Second,
			AppURL:      "http://localhost:3000",
			Environment: "development",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			MigrateOnStart:  true,
		},
		Supabase: SupabaseConfig{
			StorageBucket: "replays",
		},
		Ballchasing: BallchasingConfig{
			BaseURL:           "https://ballchasing.com",
			UploadTimeout:     30 * time.Second,
			StatusTimeout:     5 * time.Second,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Recommend: RecommendConfig{
			Timeout: 30 * time.Second,
		},
		Spotify: SpotifyConfig{
			AccountsURL: "https://accounts.spotify.com",
			APIURL:      "https://api.spotify.com",
		},
		Notify: NotifyConfig{
			From: "ReplayRhythms <notifications@replayrhythms.com>",
		},
		Poller: PollerConfig{
			Enabled:   true,
			Schedule:  "@every 1m",
			BatchSize: 50,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"http://localhost:3000"},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
			UploadRateLimit:   10,
			FeedbackRateLimit: 20,
			MaxUploadBytes:    50 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers defaults, the YAML file and the environment.
func LoadWithKoanf() (*Config, error) {
	if err := loadEnvFiles(DefaultEnvFiles); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := applyEnvAliases(k); err != nil {
		return nil, err
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadEnvFiles loads the env files that exist. godotenv.Load does not
// override variables that are already set.
func loadEnvFiles(paths []string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Names match the ones the web app already uses.
var envMappings = map[string]string{
	"http_port":           "server.port",
	"http_host":           "server.host",
	"http_timeout":        "server.timeout",
	"app_url":             "server.app_url",
	"environment":         "server.environment",
	"database_url":        "database.url",
	"db_max_open_conns":   "database.max_open_conns",
	"db_max_idle_conns":   "database.max_idle_conns",
	"db_conn_max_life":    "database.conn_max_lifetime",
	"db_migrate_on_start": "database.migrate_on_start",

	"supabase_url":              "supabase.url",
	"supabase_anon_key":         "supabase.anon_key",
	"supabase_service_role_key": "supabase.service_role_key",
	"supabase_jwt_secret":       "supabase.jwt_secret",
	"supabase_storage_bucket":   "supabase.storage_bucket",

	"ballchasing_api_key":             "ballchasing.api_key",
	"ballchasing_base_url":            "ballchasing.base_url",
	"ballchasing_upload_timeout":      "ballchasing.upload_timeout",
	"ballchasing_status_timeout":      "ballchasing.status_timeout",
	"ballchasing_requests_per_second": "ballchasing.requests_per_second",
	"ballchasing_burst":               "ballchasing.burst",

	"python_api_url":               "recommend.url",
	"python_api_timeout":           "recommend.timeout",
	"spotify_client_id":            "spotify.client_id",
	"spotify_client_secret":        "spotify.client_secret",
	"stripe_secret_key":            "stripe.secret_key",
	"stripe_webhook_secret":        "stripe.webhook_secret",
	"stripe_subscription_price_id": "stripe.price_id",
	"resend_api_key":               "notify.resend_api_key",
	"notification_email":           "notify.notification_email",
	"notification_from":            "notify.from",
	"admin_emails":                 "admin.emails",

	"poller_enabled":    "poller.enabled",
	"poller_schedule":   "poller.schedule",
	"poller_batch_size": "poller.batch_size",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"upload_rate_limit":   "security.upload_rate_limit",
	"feedback_rate_limit": "security.feedback_rate_limit",
	"max_upload_bytes":    "security.max_upload_bytes",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns the koanf path for a mapped variable and "" (skip)
// for everything else in the environment.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// envAliases are the NEXT_PUBLIC_* names shared with the web app. An alias is
// applied only when the primary variable is unset.
var envAliases = []struct {
	alias   string
	primary string
	path    string
}{
	{"NEXT_PUBLIC_APP_URL", "APP_URL", "server.app_url"},
	{"NEXT_PUBLIC_SUPABASE_URL", "SUPABASE_URL", "supabase.url"},
	{"NEXT_PUBLIC_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY", "supabase.anon_key"},
	{"NEXT_PUBLIC_SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_ID", "spotify.client_id"},
}

func applyEnvAliases(k *koanf.Koanf) error {
	for _, a := range envAliases {
		if os.Getenv(a.primary) != "" {
			continue
		}
		if v := os.Getenv(a.alias); v != "" {
			if err := k.Set(a.path, v); err != nil {
				return fmt.Errorf("failed to apply %s: %w", a.alias, err)
			}
		}
	}
	return nil
}

// sliceConfigPaths are split on commas when they arrive as strings from env.
var sliceConfigPaths = []string{
	"admin.emails",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
