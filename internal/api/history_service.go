package api

import (
	"context"

	"subgen/internal/history"
)

// HistoryReader abstracts history persistence needed for API queries.
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]history.Run, error)
	Get(ctx context.Context, id string) (*history.Run, error)
	Summary(ctx context.Context) (history.Summary, error)
}

// HistoryService exposes read-only history operations returning API DTOs.
type HistoryService struct {
	store HistoryReader
}

// NewHistoryService constructs a HistoryService around the provided reader.
func NewHistoryService(store HistoryReader) *HistoryService {
	if store == nil {
		return nil
	}
	return &HistoryService{store: store}
}

// List returns runs newest first.
func (s *HistoryService) List(ctx context.Context, limit int) ([]Run, error) {
	if s == nil || s.store == nil {
		return []Run{}, nil
	}
	runs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return FromRuns(runs), nil
}

// Describe fetches one run including its SRT. A missing run yields (nil, nil).
func (s *HistoryService) Describe(ctx context.Context, id string) (*Run, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	run, err := s.store.Get(ctx, id)
	if err != nil || run == nil {
		return nil, err
	}
	dto := FromRun(*run)
	return &dto, nil
}

// Summary returns run counts.
func (s *HistoryService) Summary(ctx context.Context) (HistorySummary, error) {
	if s == nil || s.store == nil {
		return HistorySummary{}, nil
	}
	summary, err := s.store.Summary(ctx)
	if err != nil {
		return HistorySummary{}, err
	}
	return FromSummary(summary), nil
}
