// Package services defines shared utilities consumed by the generation
// orchestrator and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, phase names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (file IO, transport, per-line parse) so the orchestrator can pick the
//     single user-facing message via UserMessage.
//
// Use these helpers when wiring new integrations so error handling and
// observability stay uniform across the pipeline.
package services
