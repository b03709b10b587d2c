// Package generate sequences one subtitle generation run.
//
// A run reads the transcript, encodes the audio, streams the model response
// through the line parser, and assembles SRT text block by block. Progress is
// reported as coarse phases with fixed percentage checkpoints. The
// Orchestrator owns the only mutable State; observers receive immutable
// snapshots. Every run carries a generation ID. Starting a new run cancels
// the previous one, and late callbacks from a superseded run are ignored.
package generate
