// Package config loads, normalizes, and validates genreclf configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and HF_TOKEN. The Config type centralizes every knob the CLI
// and pipeline need, so data, artifact, and registry locations plus
// hyperparameters are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical enum values, and clear validation errors.
package config
