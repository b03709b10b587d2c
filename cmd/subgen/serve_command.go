package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"subgen/internal/logging"
	"subgen/internal/metrics"
	"subgen/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser UI for uploading files and previewing subtitles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if value := strings.TrimSpace(bind); value != "" {
				cfg.Server.Bind = value
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			warnMissingKey(cfg, logger)

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			m := metrics.New()
			rt, err := openRuntime(signalCtx, cfg, logger, m)
			if err != nil {
				return err
			}
			defer func() {
				if err := rt.Close(); err != nil {
					logger.Warn("runtime shutdown incomplete", logging.Error(err))
				}
			}()

			hub := server.NewHub(logger)
			srv, err := server.New(server.Options{
				Config:       cfg,
				Orchestrator: rt.orchestrator(hub.Observe),
				Hub:          hub,
				History:      rt.store,
				Metrics:      m,
				Logger:       logger,
			})
			if err != nil {
				return err
			}
			logger.Info("starting subgen ui",
				logging.String("bind", cfg.Server.Bind),
				logging.String("model", cfg.Gemini.Model),
				logging.Bool("events_enabled", rt.publisher.Enabled()),
			)
			return srv.ListenAndServe(signalCtx)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}
