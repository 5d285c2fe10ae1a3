// Package config loads, normalizes, and validates anonymizer configuration data.
//
// It supplies repository defaults rooted in the XDG data directory, expands
// user paths (including tilde shortcuts), reads TOML files, and honours
// environment fallbacks such as ANONYMIZER_API_TOKEN and
// ANONYMIZER_API_BASE_URL. The Config type centralizes every knob the server,
// the CLI and the form controller need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a resolved storage backend name, and clear validation errors.
package config
