// Package config loads, normalizes, and validates showsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and PLAYLIST_TOKEN (optionally sourced from a .env file). The
// Config type centralizes every knob the CLI needs, allowing data directories
// and external service credentials to be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
