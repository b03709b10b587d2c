// Package main hosts the subgen CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into generation runs
// (generate), the browser UI (serve), run history maintenance (history),
// readiness checks (status), and configuration scaffolding (config). It
// centralizes configuration resolution and logger setup so subcommands only
// wire internal packages together.
//
// Keep this package thin: new behaviour belongs in the internal packages and
// is surfaced here through commands or flags.
package main
