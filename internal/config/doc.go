// Package config loads, normalizes, and validates photoflow configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PHOTOFLOW_API_KEY. The Config type centralizes every knob the CLI and batch
// coordinator need, so pipeline directories and external service credentials
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
