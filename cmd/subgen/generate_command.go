package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"subgen/internal/config"
	"subgen/internal/encoder"
	"subgen/internal/fileutil"
	"subgen/internal/generate"
	"subgen/internal/logging"
	"subgen/internal/subtitles"
)

// generateResult is the --json summary of a finished run.
type generateResult struct {
	RunID       string   `json:"runId"`
	Output      string   `json:"output"`
	Blocks      int      `json:"blocks"`
	Dropped     int      `json:"dropped"`
	DurationSec float64  `json:"durationSeconds"`
	SpanSec     float64  `json:"spanSeconds"`
	Issues      []string `json:"issues,omitempty"`
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var transcriptPath string
	var audioPath string
	var outputPath string
	var noProgress bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "generate [transcript] [audio]",
		Short: "Generate an SRT file from a transcript and its audio recording",
		Long: "Send the transcript and audio to the configured Gemini model and write the returned\n" +
			"subtitles as SubRip. Without --output the file lands in paths.output_dir, named after\n" +
			"the audio file. Use --output - to write to stdout.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript, audio := resolveInputs(transcriptPath, audioPath, args)
			if transcript == "" || audio == "" {
				return errors.New("provide a transcript and an audio file. Example: subgen generate talk.txt talk.mp3")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			warnMissingKey(cfg, logger)

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			rt, err := openRuntime(runCtx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer func() {
				if err := rt.Close(); err != nil {
					logger.Warn("runtime shutdown incomplete", logging.Error(err))
				}
			}()

			progress := newProgressView(cmd.ErrOrStderr(), !noProgress && !jsonOutput)
			orch := rt.orchestrator(progress.Observe)
			state, runErr := orch.Run(runCtx, generate.Input{
				Transcript: encoder.PathFile(transcript),
				Audio:      encoder.PathFile(audio),
			})
			progress.Finish()
			if runErr != nil {
				if errors.Is(runErr, context.Canceled) && runCtx.Err() != nil {
					return context.Canceled
				}
				return errors.New(state.Message)
			}

			target, err := writeSubtitles(cmd, cfg, outputPath, state)
			if err != nil {
				return err
			}
			return printGenerateSummary(cmd, target, state, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&transcriptPath, "transcript", "t", "", "Transcript text file")
	cmd.Flags().StringVarP(&audioPath, "audio", "a", "", "Audio recording matching the transcript")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination .srt path (default: output_dir/<audio>.srt, - for stdout)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the terminal progress bar")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print a JSON summary instead of text")
	return cmd
}

// resolveInputs fills unset flags from positional arguments in order.
func resolveInputs(transcript, audio string, args []string) (string, string) {
	transcript = strings.TrimSpace(transcript)
	audio = strings.TrimSpace(audio)
	rest := args
	if transcript == "" && len(rest) > 0 {
		transcript = strings.TrimSpace(rest[0])
		rest = rest[1:]
	}
	if audio == "" && len(rest) > 0 {
		audio = strings.TrimSpace(rest[0])
	}
	return transcript, audio
}

// writeSubtitles stores the SRT and returns where it went ("-" for stdout).
func writeSubtitles(cmd *cobra.Command, cfg *config.Config, outputPath string, state generate.State) (string, error) {
	output := strings.TrimSpace(outputPath)
	if output == "-" {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), state.SRT); err != nil {
			return "", fmt.Errorf("write subtitles: %w", err)
		}
		return output, nil
	}

	var target string
	if output == "" {
		target = fileutil.UniquePath(cfg.Paths.OutputDir, state.FileName())
	} else {
		expanded, err := config.ExpandPath(output)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if info, err := os.Stat(expanded); err == nil && info.IsDir() {
			expanded = filepath.Join(expanded, state.FileName())
		}
		target = expanded
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(target, []byte(state.SRT), 0o644); err != nil {
		return "", fmt.Errorf("write subtitles: %w", err)
	}
	return target, nil
}

func printGenerateSummary(cmd *cobra.Command, target string, state generate.State, jsonOutput bool) error {
	report := subtitles.Inspect(state.SRT)
	if jsonOutput {
		if target == "-" {
			return nil
		}
		return writeJSON(cmd, generateResult{
			RunID:       state.RunID,
			Output:      target,
			Blocks:      len(state.Blocks),
			Dropped:     state.Dropped,
			DurationSec: state.Duration().Seconds(),
			SpanSec:     report.Span().Seconds(),
			Issues:      report.Issues,
		})
	}

	out := cmd.OutOrStdout()
	if target == "-" {
		out = cmd.ErrOrStderr()
	} else {
		fmt.Fprintf(out, "Wrote %d subtitles to %s\n", len(state.Blocks), target)
	}
	if len(state.Blocks) == 0 {
		fmt.Fprintln(out, "Warning: the model returned no subtitle blocks")
	} else {
		fmt.Fprintf(out, "Covers %s of audio, generated in %s\n", formatSpan(report.Span()), formatSpan(state.Duration()))
	}
	if state.Dropped > 0 {
		fmt.Fprintf(out, "Warning: %d response line(s) could not be parsed and were skipped\n", state.Dropped)
	}
	return nil
}
