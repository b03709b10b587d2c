// Package logs reads the rotating JSON log file for `subgen logs`.
//
// Tail returns the last N lines (or everything after a byte offset) with
// bounded memory, optionally narrowed to one generation run by its run_id
// field. Follow keeps polling until the context ends and restarts from the
// top when the file was rotated underneath it.
package logs
