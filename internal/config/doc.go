// Package config loads, normalizes, and validates subrover configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and rejects unusable settings before any scan
// or download starts. Always obtain settings through this package so
// downstream code receives sanitized paths, canonical language codes, and
// clear validation errors.
package config
