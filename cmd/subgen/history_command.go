package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subgen/internal/api"
	"subgen/internal/generate"
	"subgen/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage past generation runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.New("--limit must be zero (all) or positive")
			}
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.RunListResponse{Runs: api.FromRuns(runs)})
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderRunTable(runs))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, jsonFlagUsage)
	return cmd
}

func renderRunTable(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			formatWhen(run.StartedAt),
			string(run.Status),
			valueOrDash(run.AudioName),
			strconv.Itoa(run.Blocks),
			strconv.Itoa(run.Dropped),
			formatSpan(run.Duration()),
		})
	}
	return renderTable(
		[]string{"ID", "Started", "Status", "Audio", "Blocks", "Dropped", "Took"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	)
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var srtOnly bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run; --srt prints its subtitles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return withHistory(ctx, func(store *history.Store) error {
				run, err := lookupRun(cmd, store, id)
				if err != nil {
					return err
				}
				if srtOnly {
					if run.Status != history.StatusSucceeded {
						return fmt.Errorf("run %s has no subtitles (status %s)", run.ID, run.Status)
					}
					fmt.Fprintln(cmd.OutOrStdout(), run.SRT)
					return nil
				}
				if jsonOutput {
					return writeJSON(cmd, api.FromRun(*run))
				}
				printRunDetails(cmd, *run)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&srtOnly, "srt", false, "Print the generated SubRip text")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, jsonFlagUsage)
	return cmd
}

// lookupRun accepts a full ID or a unique prefix as printed by history list.
func lookupRun(cmd *cobra.Command, store *history.Store, id string) (*history.Run, error) {
	if id == "" {
		return nil, errors.New("run id is required")
	}
	run, err := store.Get(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if run != nil {
		return run, nil
	}
	runs, err := store.List(cmd.Context(), 0)
	if err != nil {
		return nil, err
	}
	var match string
	for _, candidate := range runs {
		if strings.HasPrefix(candidate.ID, id) {
			if match != "" {
				return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
			}
			match = candidate.ID
		}
	}
	if match == "" {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return store.Get(cmd.Context(), match)
}

func printRunDetails(cmd *cobra.Command, run history.Run) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:        %s\n", run.ID)
	fmt.Fprintf(out, "Status:     %s\n", run.Status)
	fmt.Fprintf(out, "Transcript: %s\n", valueOrDash(run.TranscriptName))
	fmt.Fprintf(out, "Audio:      %s\n", valueOrDash(run.AudioName))
	fmt.Fprintf(out, "Model:      %s\n", valueOrDash(run.Model))
	fmt.Fprintf(out, "Started:    %s\n", formatWhen(run.StartedAt))
	fmt.Fprintf(out, "Finished:   %s\n", formatWhen(run.FinishedAt))
	fmt.Fprintf(out, "Blocks:     %d (%d dropped)\n", run.Blocks, run.Dropped)
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:      %s\n", run.ErrorMessage)
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to clear history without --yes")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			lock := generate.NewRunLock(cfg.LockPath())
			if err := lock.Acquire(); err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
			defer lock.Release()

			return withHistory(ctx, func(store *history.Store) error {
				n, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", n)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm deletion")
	return cmd
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
