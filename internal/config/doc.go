// Package config loads, normalizes, and validates showgrab configuration.
//
// It supplies repository defaults, expands tilde paths, and reads TOML files.
// The Config type centralizes every knob the CLI needs: catalog endpoints,
// output layout, download concurrency and retry policy, subtitle filters,
// cache and history locations, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
