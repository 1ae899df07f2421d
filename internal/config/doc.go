// Package config loads, normalizes, and validates preloader configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// daemon and CLI need, so downstream code receives sanitized absolute paths,
// canonical log formats, and clear validation errors.
package config
