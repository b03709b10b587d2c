package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"subgen/internal/api"
	"subgen/internal/history"
	"subgen/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check directories, model access, and run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			var results []preflight.Result
			if offline {
				results = append(preflight.CheckDirectories(cfg), preflight.CheckAPIKey(cfg))
			} else {
				results = preflight.RunAll(cmd.Context(), cfg)
			}

			status := api.Status{
				Model:       cfg.Gemini.Model,
				HistoryPath: cfg.HistoryPath(),
				LockPath:    cfg.LockPath(),
				OutputDir:   cfg.Paths.OutputDir,
				Checks:      api.FromResults(results),
			}
			if store, err := history.Open(cfg); err == nil {
				summary, err := store.Summary(cmd.Context())
				store.Close()
				if err == nil {
					status.History = api.FromSummary(summary)
				}
			} else {
				status.Checks = append(status.Checks, api.Check{Name: "History database", Detail: err.Error()})
			}

			if jsonOutput {
				if err := writeJSON(cmd, status); err != nil {
					return err
				}
			} else {
				printStatus(cmd, status)
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, jsonFlagUsage)
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip network checks (model and brokers)")
	return cmd
}

func printStatus(cmd *cobra.Command, status api.Status) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Model:      %s\n", status.Model)
	fmt.Fprintf(out, "Output dir: %s\n", status.OutputDir)
	fmt.Fprintf(out, "History:    %s\n\n", status.HistoryPath)

	rows := make([][]string, 0, len(status.Checks))
	for _, check := range status.Checks {
		result := "ok"
		if !check.Passed {
			result = "FAIL"
		}
		rows = append(rows, []string{check.Name, result, check.Detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Check", "Result", "Detail"}, rows, nil))

	h := status.History
	fmt.Fprintln(out, renderTable(
		[]string{"Runs", "Succeeded", "Failed", "Cancelled", "Running"},
		[][]string{{strconv.Itoa(h.Total), strconv.Itoa(h.Succeeded), strconv.Itoa(h.Failed), strconv.Itoa(h.Cancelled), strconv.Itoa(h.Running)}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
	))
}
