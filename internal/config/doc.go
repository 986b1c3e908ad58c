// Package config loads, normalizes, and validates vidlingo configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies environment overrides for secrets
// such as VIDLINGO_LLM_API_KEY. The Config type centralizes every knob the
// daemon and CLI need so directories, delegate credentials, and stage timeouts
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical language names, and clear validation errors.
package config
