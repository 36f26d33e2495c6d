// Package config loads, normalizes, and validates tally configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TALLY_ODOO_PASSWORD. The Config type centralizes every knob the CLI needs,
// so downstream code receives sanitized paths, canonical log formats, and
// clear validation errors.
package config
