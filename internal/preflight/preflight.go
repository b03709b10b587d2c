package preflight

import (
	"context"

	"subgen/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := CheckDirectories(cfg)
	results = append(results, CheckAPIKey(cfg))
	if _, ok := cfg.GeminiAPIKey(); ok {
		results = append(results, CheckGemini(ctx, cfg))
	}
	if cfg.Events.Enabled {
		results = append(results, CheckBrokers(ctx, cfg.Events.Brokers))
	}
	return results
}

// CheckDirectories covers the output, data, and (when configured) log directories.
func CheckDirectories(cfg *config.Config) []Result {
	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	return results
}

// Failed filters results down to the failing checks.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
