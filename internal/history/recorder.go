package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"subgen/internal/generate"
	"subgen/internal/logging"
)

// Recorder persists orchestrator events. Storage failures are logged and never
// interrupt generation.
type Recorder struct {
	store  *Store
	model  string
	logger *slog.Logger

	mu      sync.Mutex
	current string
	blocks  int
}

// NewRecorder binds a store to the model name stamped on every run.
func NewRecorder(store *Store, model string, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		model:  model,
		logger: logging.NewComponentLogger(logger, "history"),
	}
}

// Observe implements generate.Observer.
func (r *Recorder) Observe(evt generate.Event) {
	if r == nil || r.store == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := context.Background()
	st := evt.State
	switch evt.Kind {
	case generate.EventBlock:
		if evt.RunID == r.current {
			r.blocks = len(st.Blocks)
		}
	case generate.EventReset:
		r.cancelCurrent(ctx)
	case generate.EventPhase:
		switch st.Phase {
		case generate.PhasePreparing:
			if r.current != "" && r.current != evt.RunID {
				r.cancelCurrent(ctx)
			}
			r.current = evt.RunID
			r.blocks = 0
			r.check("begin", evt.RunID, r.store.Begin(ctx, Run{
				ID:             evt.RunID,
				TranscriptName: st.TranscriptName,
				AudioName:      st.AudioName,
				Model:          r.model,
				StartedAt:      st.StartedAt,
			}))
		case generate.PhaseSuccess:
			r.check("complete", evt.RunID,
				r.store.Complete(ctx, evt.RunID, st.SRT, len(st.Blocks), st.Dropped, st.FinishedAt))
			r.current = ""
		case generate.PhaseError:
			r.check("fail", evt.RunID,
				r.store.Fail(ctx, evt.RunID, st.Message, len(st.Blocks), st.Dropped, st.FinishedAt))
			r.current = ""
		}
	}
}

func (r *Recorder) cancelCurrent(ctx context.Context) {
	if r.current == "" {
		return
	}
	r.check("cancel", r.current, r.store.Cancel(ctx, r.current, r.blocks, time.Now()))
	r.current = ""
	r.blocks = 0
}

func (r *Recorder) check(op, runID string, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(r.logger, "history write failed", "history_write_failed",
		logging.String("operation", op),
		logging.RunID(runID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check that the data directory is writable"),
		logging.String(logging.FieldImpact, "run will be missing from history"),
	)
}
