// Package history persists generation runs in SQLite.
//
// Every run the orchestrator starts becomes a row carrying the input file
// names, the model, the terminal status, block and dropped-line counts, the
// finalized SRT, and the user-facing failure message. The Recorder adapts the
// store to the orchestrator's observer hook so persistence stays out of the
// generation path.
//
// Schema changes bump schemaVersion; users clear the database to adopt them.
package history
