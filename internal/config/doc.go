// Package config loads, normalizes, and validates Cadence configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for
// annotator passcodes. The Config type centralizes every knob the daemon and
// CLI need: the dataset source, the annotator roster, assignment pool
// parameters, and directory layout.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
