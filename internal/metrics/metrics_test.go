package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"subgen/internal/generate"
	"subgen/internal/metrics"
	"subgen/internal/subtitles"
)

func phaseEvent(runID string, phase generate.Phase, dropped int) generate.Event {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st := generate.State{RunID: runID, Phase: phase, Dropped: dropped, StartedAt: start}
	if phase.Terminal() {
		st.FinishedAt = start.Add(4 * time.Second)
	}
	return generate.Event{Kind: generate.EventPhase, RunID: runID, State: st}
}

func TestObserveCountsRunOutcomes(t *testing.T) {
	m := metrics.New()

	m.Observe(phaseEvent("a", generate.PhasePreparing, 0))
	if got := testutil.ToFloat64(m.RunsActive); got != 1 {
		t.Fatalf("active = %v, want 1", got)
	}
	block := subtitles.Block{ID: 1}
	m.Observe(generate.Event{Kind: generate.EventBlock, RunID: "a", Block: &block})
	m.Observe(generate.Event{Kind: generate.EventBlock, RunID: "a", Block: &block})
	m.Observe(phaseEvent("a", generate.PhaseSuccess, 3))

	m.Observe(phaseEvent("b", generate.PhasePreparing, 0))
	m.Observe(phaseEvent("b", generate.PhaseError, 1))

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(metrics.OutcomeSucceeded)); got != 1 {
		t.Fatalf("succeeded = %v", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(metrics.OutcomeFailed)); got != 1 {
		t.Fatalf("failed = %v", got)
	}
	if got := testutil.ToFloat64(m.Blocks); got != 2 {
		t.Fatalf("blocks = %v", got)
	}
	if got := testutil.ToFloat64(m.LinesDropped); got != 4 {
		t.Fatalf("dropped = %v", got)
	}
	if got := testutil.ToFloat64(m.RunsActive); got != 0 {
		t.Fatalf("active = %v, want 0", got)
	}
	if got := testutil.CollectAndCount(m.RunDuration); got != 1 {
		t.Fatalf("duration series = %d", got)
	}
}

func TestObserveCountsCancelledRuns(t *testing.T) {
	m := metrics.New()
	m.Observe(phaseEvent("a", generate.PhasePreparing, 0))
	m.Observe(phaseEvent("b", generate.PhasePreparing, 0))
	m.Observe(generate.Event{Kind: generate.EventReset})

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(metrics.OutcomeCancelled)); got != 2 {
		t.Fatalf("cancelled = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RunsActive); got != 0 {
		t.Fatalf("active = %v, want 0", got)
	}
}

func TestRecordPublish(t *testing.T) {
	m := metrics.New()
	m.RecordPublish("block", nil, 0.01)
	m.RecordPublish("block", io.EOF, 0.02)
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues("block", "ok")); got != 1 {
		t.Fatalf("ok = %v", got)
	}
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues("block", "error")); got != 1 {
		t.Fatalf("error = %v", got)
	}

	var nilMetrics *metrics.Metrics
	nilMetrics.RecordPublish("block", nil, 0)
	nilMetrics.Observe(generate.Event{})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := metrics.New()
	m.Observe(phaseEvent("a", generate.PhasePreparing, 0))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{"subgen_runs_active 1", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
