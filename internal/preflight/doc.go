// Package preflight provides readiness checks for the directories, the model
// API, and the optional event brokers that subgen depends on.
//
// The CLI "subgen status" command runs RunAll and renders the results; the
// server runs the directory checks once at startup. Optional features are
// skipped when disabled.
package preflight
