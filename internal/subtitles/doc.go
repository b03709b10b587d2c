// Package subtitles owns the subtitle block model and its SubRip rendering.
//
// DecodeBlock enforces the block invariant on a single JSON record (all four
// fields present with the right primitive types). Assembler accumulates
// validated blocks into SubRip text in arrival order and never rewrites what
// it has already written. Inspect summarizes finished output (cue count and
// covered time span) for the CLI, history, and HTTP views.
package subtitles
