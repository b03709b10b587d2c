package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"subgen/internal/config"
	"subgen/internal/events"
	"subgen/internal/generate"
	"subgen/internal/history"
	"subgen/internal/logging"
	"subgen/internal/metrics"
	"subgen/internal/services/gemini"
)

// runtime bundles the collaborators shared by generate and serve: the run
// lock, history store, event publisher, and model client.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	lock      *generate.RunLock
	store     *history.Store
	publisher *events.Publisher
	client    *gemini.Client
	metrics   *metrics.Metrics
}

// openRuntime takes the run lock and opens the history store. Runs left
// "running" by a previous process are marked cancelled. A nil metrics value
// leaves the metrics observer out.
func openRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*runtime, error) {
	lock := generate.NewRunLock(cfg.LockPath())
	if err := lock.Acquire(); err != nil {
		if errors.Is(err, generate.ErrLocked) {
			return nil, fmt.Errorf("%w (lock %s)", err, lock.Path())
		}
		return nil, err
	}

	store, err := history.Open(cfg)
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("open history: %w", err)
	}
	if n, err := store.MarkAbandoned(ctx); err != nil {
		logging.WarnWithContext(logger, "mark abandoned runs failed", "history_abandon_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale runs stay marked running"),
		)
	} else if n > 0 {
		logger.Info("abandoned runs marked cancelled", logging.Int64("runs", n))
	}

	return &runtime{
		cfg:    cfg,
		logger: logger,
		lock:   lock,
		store:  store,
		publisher: events.New(events.Config{
			Enabled: cfg.Events.Enabled,
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
		}, logger, m),
		client:  gemini.NewClient(gemini.ConfigFrom(cfg), gemini.WithLogger(logger)),
		metrics: m,
	}, nil
}

// orchestrator wires history, events, and metrics observers ahead of extra.
func (r *runtime) orchestrator(extra ...generate.Observer) *generate.Orchestrator {
	recorder := history.NewRecorder(r.store, r.client.Model(), r.logger)
	observers := []generate.Observer{recorder.Observe, r.publisher.Observe}
	if r.metrics != nil {
		observers = append(observers, r.metrics.Observe)
	}
	observers = append(observers, extra...)
	return generate.New(r.client,
		generate.WithLogger(r.logger),
		generate.WithObserver(observers...),
	)
}

func (r *runtime) Close() error {
	var errs []error
	if err := r.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if err := r.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close history: %w", err))
	}
	if err := r.lock.Release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
