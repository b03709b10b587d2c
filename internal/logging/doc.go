// Package logging assembles structured slog loggers and formatting helpers used
// across subgen.
//
// It owns the console and JSON handlers, mirrors records into a rotating JSON
// log file, and exposes context-aware helpers so generation code tags log
// lines with run IDs, phases, and correlation IDs. A no-op logger is provided
// for tests and wiring code that cannot fail.
package logging
