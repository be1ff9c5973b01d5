// Package services defines shared utilities consumed by the pipeline stages
// and the external integrations (TMDB, model registry).
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that tag every failure
//     with its stage so the CLI can map it to an exit code and an operator
//     can tell configuration, data, training, and registry problems apart.
//
// Use these helpers when wiring new stage logic so failure reporting stays
// uniform across the pipeline.
package services
