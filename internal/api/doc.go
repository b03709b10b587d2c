// Package api defines wire-format types and converters shared by the HTTP
// server and the CLI's JSON output. It translates orchestrator state and
// history rows into transport-friendly DTOs so browser code and scripts never
// couple to internal types.
//
// # Key Types
//
// State: the live generation snapshot with phase, percent, blocks, SRT
// preview, dropped-line count, and download readiness.
//
// Run: one persisted history row.
//
// StreamMessage: the websocket envelope carrying phase, block, and reset
// notifications. Block messages hold one cue plus Progress counters; the
// snapshot and phase messages hold the full State.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Internal failure detail never appears in a DTO; only the user-facing
// message does.
package api
