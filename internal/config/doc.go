// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

/*
Package config loads ReplayRhythms configuration with koanf.

Sources, lowest priority first:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: CONFIG_PATH, ./config.yaml, ./config.yml or
    /etc/replayrhythms/config.yaml
 3. .env.local and .env, loaded into the environment by godotenv without
    overriding variables that are already set
 4. Environment variables

Environment names match the ones the web app uses (DATABASE_URL,
SUPABASE_URL, BALLCHASING_API_KEY, PYTHON_API_URL, STRIPE_SECRET_KEY,
RESEND_API_KEY, ...). The NEXT_PUBLIC_* variants are accepted as fallbacks
for the public values. Comma-separated ADMIN_EMAILS and CORS_ORIGINS become
slices.

Only DATABASE_URL is required. Every integration without credentials is
reported as not configured by its handler at request time, so a partial
deployment still boots.

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	fmt.Println(cfg.Server.Addr())

Validate checks URL shapes, limits, the poller cron expression and the
pairs of settings that only make sense together, such as a Stripe key
without a price id.
*/
package config
