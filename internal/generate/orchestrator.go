package generate

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"subgen/internal/encoder"
	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/services/gemini"
	"subgen/internal/stream"
	"subgen/internal/subtitles"
)

// ErrSuperseded is returned by a run that was replaced by a newer run or a reset.
var ErrSuperseded = errors.New("run superseded")

// Streamer issues a model request and yields response text chunks.
type Streamer interface {
	Stream(ctx context.Context, req gemini.Request) iter.Seq2[string, error]
}

// Input names the two files a run consumes.
type Input struct {
	Transcript encoder.File
	Audio      encoder.File
}

// Orchestrator owns the generation state. Its methods are safe for concurrent
// use; at most one run is active at a time.
type Orchestrator struct {
	streamer  Streamer
	prompt    string
	logger    *slog.Logger
	observers []Observer
	newID     func() string
	now       func() time.Time

	mu      sync.Mutex
	state   State
	asm     subtitles.Assembler
	cancel  context.CancelFunc
	sampler *logging.ProgressSampler
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver registers observers notified on every state change.
func WithObserver(observers ...Observer) Option {
	return func(o *Orchestrator) {
		for _, obs := range observers {
			if obs != nil {
				o.observers = append(o.observers, obs)
			}
		}
	}
}

// WithPrompt overrides the instruction prompt sent with every request.
func WithPrompt(prompt string) Option {
	return func(o *Orchestrator) {
		if prompt != "" {
			o.prompt = prompt
		}
	}
}

// WithIDGenerator overrides run ID generation (useful for tests).
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.now = fn
		}
	}
}

// New constructs an idle orchestrator.
func New(streamer Streamer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		streamer: streamer,
		prompt:   gemini.SubtitlePrompt,
		logger:   logging.NewNop(),
		newID:    uuid.NewString,
		now:      time.Now,
		state:    State{Phase: PhaseIdle},
		sampler:  logging.NewProgressSampler(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "generate")
	return o
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// WithSnapshot calls fn with a copy of the current state while holding the
// orchestrator lock, so no observer event is delivered until fn returns. A
// subscriber that registers inside fn sees every event after the snapshot and
// none before it. fn must not call back into the Orchestrator.
func (o *Orchestrator) WithSnapshot(fn func(State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(o.state.clone())
}

// Run executes one generation synchronously and returns the terminal state.
// The returned error is the internal failure; State.Message holds the text
// meant for the user.
func (o *Orchestrator) Run(ctx context.Context, in Input) (State, error) {
	runID, runCtx, cancel := o.begin(ctx, in)
	defer cancel()
	return o.execute(runCtx, runID, in)
}

// Start launches a run in the background and returns its ID. Any run already
// in flight is cancelled and its late callbacks are ignored.
func (o *Orchestrator) Start(ctx context.Context, in Input) string {
	runID, runCtx, cancel := o.begin(ctx, in)
	go func() {
		defer cancel()
		_, _ = o.execute(runCtx, runID, in)
	}()
	return runID
}

// Reset cancels any active run and returns to idle, discarding accumulated text.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.asm.Reset()
	o.sampler.Reset()
	o.state = State{Phase: PhaseIdle}
	o.logger.Info("state cleared")
	o.notifyLocked(Event{Kind: EventReset})
}

func (o *Orchestrator) begin(ctx context.Context, in Input) (string, context.Context, context.CancelFunc) {
	runID := o.newID()
	runCtx, cancel := context.WithCancel(services.WithRunID(ctx, runID))

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
		o.logger.Info("previous run superseded", logging.String("superseded_run", o.state.RunID), logging.RunID(runID))
	}
	o.cancel = cancel
	o.asm.Reset()
	o.sampler.Reset()
	o.state = State{
		RunID:          runID,
		TranscriptName: in.Transcript.Name,
		AudioName:      in.Audio.Name,
		Phase:          PhaseIdle,
		StartedAt:      o.now(),
	}
	return runID, runCtx, cancel
}

func (o *Orchestrator) execute(ctx context.Context, runID string, in Input) (State, error) {
	logger := logging.WithContext(ctx, o.logger)

	if !o.transition(runID, PhasePreparing) {
		return o.superseded(runID)
	}
	transcript, err := encoder.ReadText(in.Transcript)
	if err != nil {
		return o.fail(runID, err, stream.Stats{})
	}

	if !o.transition(runID, PhaseUploading) {
		return o.superseded(runID)
	}
	audio, err := encoder.ReadAsBase64(in.Audio)
	if err != nil {
		return o.fail(runID, err, stream.Stats{})
	}
	logger.Debug("inputs encoded",
		logging.String("transcript", in.Transcript.Name),
		logging.String("audio", in.Audio.Name),
		logging.String("mime_type", audio.MIMEType),
		logging.Int64("audio_bytes", int64(audio.Size)),
	)

	if !o.transition(runID, PhaseAnalyzing) {
		return o.superseded(runID)
	}
	chunks := o.streamer.Stream(ctx, gemini.Request{Prompt: o.prompt, Transcript: transcript, Audio: audio})
	streamLogger := logging.WithContext(services.WithPhase(ctx, PhaseGenerating.String()), o.logger)
	stats, err := stream.Decode(ctx, chunks, func(block subtitles.Block) {
		o.accept(runID, block)
	}, stream.WithLogger(streamLogger))
	if err != nil {
		return o.fail(runID, err, stats)
	}
	return o.succeed(runID, stats)
}

// transition moves the active run to phase. It reports false when runID is
// no longer active or the run already finished.
func (o *Orchestrator) transition(runID string, phase Phase) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.RunID != runID || o.state.Phase.Terminal() {
		return false
	}
	o.setPhaseLocked(phase)
	return true
}

func (o *Orchestrator) setPhaseLocked(phase Phase) {
	o.state.Phase = phase
	o.state.Percent = phase.Percent()
	if o.sampler.ShouldLog(float64(o.state.Percent), phase.String()) {
		o.logger.Info("phase changed",
			logging.RunID(o.state.RunID),
			logging.Phase(phase.String()),
			logging.Int(logging.FieldProgressPercent, o.state.Percent),
		)
	}
	o.notifyLocked(Event{Kind: EventPhase, RunID: o.state.RunID})
}

func (o *Orchestrator) accept(runID string, block subtitles.Block) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.RunID != runID || o.state.Phase.Terminal() {
		o.logger.Debug("stale block ignored", logging.RunID(runID), logging.Int("block_id", block.ID))
		return
	}
	if o.state.Phase != PhaseGenerating {
		o.setPhaseLocked(PhaseGenerating)
	}
	o.asm.Append(block)
	o.state.Blocks = append(o.state.Blocks, block)
	o.state.SRT = o.asm.String()
	o.notifyLocked(Event{Kind: EventBlock, RunID: runID, Block: &block})
}

func (o *Orchestrator) succeed(runID string, stats stream.Stats) (State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.RunID != runID {
		return State{RunID: runID, Phase: PhaseError}, ErrSuperseded
	}
	o.state.SRT = o.asm.Finalize()
	o.state.Dropped = stats.Dropped
	o.state.FinishedAt = o.now()
	o.cancel = nil
	o.setPhaseLocked(PhaseSuccess)
	o.logger.Info("subtitles generated",
		logging.RunID(runID),
		logging.Int("blocks", len(o.state.Blocks)),
		logging.Int("lines_dropped", stats.Dropped),
		logging.Duration("duration", o.state.Duration()),
	)
	return o.state.clone(), nil
}

func (o *Orchestrator) fail(runID string, err error, stats stream.Stats) (State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.RunID != runID {
		return State{RunID: runID, Phase: PhaseError}, ErrSuperseded
	}
	o.state.Message = services.UserMessage(err)
	o.state.Dropped = stats.Dropped
	o.state.FinishedAt = o.now()
	o.state.err = err
	o.cancel = nil
	logging.ErrorWithContext(o.logger, "generation failed", "generation_failed",
		logging.RunID(runID),
		logging.Phase(o.state.Phase.String()),
		logging.Error(err),
		logging.Int("blocks", len(o.state.Blocks)),
		logging.String(logging.FieldErrorHint, errorHint(err)),
	)
	o.setPhaseLocked(PhaseError)
	return o.state.clone(), err
}

func (o *Orchestrator) superseded(runID string) (State, error) {
	return State{RunID: runID, Phase: PhaseError}, ErrSuperseded
}

func (o *Orchestrator) notifyLocked(evt Event) {
	if len(o.observers) == 0 {
		return
	}
	evt.State = o.state.clone()
	for _, obs := range o.observers {
		obs(evt)
	}
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, services.ErrIO):
		return "check that the transcript and audio files exist and are readable"
	case errors.Is(err, context.Canceled):
		return "run was cancelled"
	case gemini.StatusCode(err) == 400 || gemini.StatusCode(err) == 403:
		return "check the Gemini API key (GEMINI_API_KEY) and model name"
	case gemini.StatusCode(err) == 429:
		return "Gemini quota exhausted; wait and retry"
	default:
		return "check network access to the Gemini API"
	}
}
