// Package services defines shared utilities consumed by the production
// pipeline stages and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and the zodiac sign
//     being produced, for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (fatal configuration problems vs retryable transients)
//     uniform across the pipeline.
//
// Use these helpers when wiring new stage logic so operational behaviour
// stays consistent everywhere.
package services
