// Package config loads, normalizes, and validates ovtracker configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY, TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID. The Config type
// centralizes every knob the pipeline and CLI need, so the schedule source,
// film database, transport credentials, and state locations are discovered in
// one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a loaded time zone, and clear validation errors.
package config
