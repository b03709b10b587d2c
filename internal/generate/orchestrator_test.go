package generate_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"subgen/internal/encoder"
	"subgen/internal/generate"
	"subgen/internal/services"
	"subgen/internal/services/gemini"
	"subgen/internal/subtitles"
)

type script struct {
	chunks []string
	err    error
	// gate blocks the stream before its second chunk until closed.
	gate chan struct{}
}

type fakeStreamer struct {
	scripts []script

	mu       sync.Mutex
	requests []gemini.Request
}

func newStreamer(chunks ...string) *fakeStreamer {
	return &fakeStreamer{scripts: []script{{chunks: chunks}}}
}

func (f *fakeStreamer) Stream(ctx context.Context, req gemini.Request) iter.Seq2[string, error] {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	sc := script{}
	if len(f.scripts) > 0 {
		sc = f.scripts[min(len(f.requests), len(f.scripts))-1]
	}
	f.mu.Unlock()
	return func(yield func(string, error) bool) {
		for i, chunk := range sc.chunks {
			if i == 1 && sc.gate != nil {
				select {
				case <-sc.gate:
				case <-ctx.Done():
					yield("", ctx.Err())
					return
				}
			}
			if !yield(chunk, nil) {
				return
			}
		}
		if sc.err != nil {
			yield("", sc.err)
		}
	}
}

type recorder struct {
	mu     sync.Mutex
	events []generate.Event
}

func (r *recorder) observe(evt generate.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) phases() []generate.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []generate.Phase
	for _, evt := range r.events {
		if evt.Kind == generate.EventPhase {
			out = append(out, evt.State.Phase)
		}
	}
	return out
}

func (r *recorder) percents() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, evt := range r.events {
		if evt.Kind == generate.EventPhase {
			out = append(out, evt.State.Percent)
		}
	}
	return out
}

func inputs() generate.Input {
	return generate.Input{
		Transcript: encoder.BytesFile("talk.txt", "text/plain", []byte("Hello world")),
		Audio:      encoder.BytesFile("talk.mp3", "audio/mpeg", []byte("ID3fake-audio")),
	}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("run-%d", n)
	}
}

func TestRunProducesSRT(t *testing.T) {
	streamer := newStreamer(
		`{"id":1,"startTime":"00:00:00,000","endTime":"00:00:01,000","text":"Hel`,
		`lo"}`+"\n"+`{"id":2,"startTime":"00:00:01,000","endTime":"00:00:02,000","text":"World"}`,
	)
	rec := &recorder{}
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orch := generate.New(streamer,
		generate.WithObserver(rec.observe),
		generate.WithIDGenerator(func() string { return "run-a" }),
		generate.WithClock(func() time.Time { clock = clock.Add(time.Second); return clock }),
	)

	state, err := orch.Run(context.Background(), inputs())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:01,000\nHello\n\n2\n00:00:01,000 --> 00:00:02,000\nWorld"
	if state.SRT != want {
		t.Fatalf("SRT = %q, want %q", state.SRT, want)
	}
	if state.Phase != generate.PhaseSuccess || state.Percent != 100 {
		t.Fatalf("unexpected terminal state %s/%d", state.Phase, state.Percent)
	}
	if !state.DownloadReady() {
		t.Fatal("expected download to be ready")
	}
	if state.FileName() != "talk.srt" {
		t.Fatalf("FileName = %q", state.FileName())
	}
	if state.RunID != "run-a" || state.Duration() != time.Second {
		t.Fatalf("unexpected run metadata %+v", state)
	}
	if len(state.Blocks) != 2 || state.Blocks[1].Text != "World" {
		t.Fatalf("unexpected blocks %+v", state.Blocks)
	}

	wantPhases := []generate.Phase{
		generate.PhasePreparing,
		generate.PhaseUploading,
		generate.PhaseAnalyzing,
		generate.PhaseGenerating,
		generate.PhaseSuccess,
	}
	if got := rec.phases(); !equalPhases(got, wantPhases) {
		t.Fatalf("phases = %v, want %v", got, wantPhases)
	}
	wantPercents := []int{10, 25, 40, 60, 100}
	if got := rec.percents(); !equalInts(got, wantPercents) {
		t.Fatalf("percents = %v, want %v", got, wantPercents)
	}

	if len(streamer.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(streamer.requests))
	}
	req := streamer.requests[0]
	if req.Transcript != "Hello world" {
		t.Fatalf("transcript = %q", req.Transcript)
	}
	if req.Audio.MIMEType != "audio/mpeg" || req.Audio.Data == "" {
		t.Fatalf("unexpected audio payload %+v", req.Audio)
	}
	if req.Prompt != gemini.SubtitlePrompt {
		t.Fatal("expected default prompt")
	}
}

func TestRunEmitsBlockEventsInOrder(t *testing.T) {
	streamer := newStreamer(
		`{"id":1,"startTime":"00:00:00,000","endTime":"00:00:01,000","text":"A"}`+"\n",
		`{"id":1,"startTime":"00:00:01,000","endTime":"00:00:02,000","text":"B"}`+"\n",
	)
	rec := &recorder{}
	orch := generate.New(streamer, generate.WithObserver(rec.observe))
	if _, err := orch.Run(context.Background(), inputs()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var texts []string
	for _, evt := range rec.events {
		if evt.Kind != generate.EventBlock {
			continue
		}
		texts = append(texts, evt.Block.Text)
		if evt.State.Phase != generate.PhaseGenerating {
			t.Fatalf("block event in phase %s", evt.State.Phase)
		}
	}
	if strings.Join(texts, ",") != "A,B" {
		t.Fatalf("block order = %v", texts)
	}
	last := rec.events[len(rec.events)-1]
	if !strings.HasPrefix(last.State.SRT, "1\n00:00:00,000") || strings.HasSuffix(last.State.SRT, "\n") {
		t.Fatalf("unexpected final SRT %q", last.State.SRT)
	}
}

func TestRunCountsDroppedLines(t *testing.T) {
	streamer := newStreamer(
		"Here are your subtitles:\n",
		`{"id":1,"startTime":"00:00:00,000","endTime":"00:00:01,000"}`+"\n",
		`{"id":2,"startTime":"00:00:01,000","endTime":"00:00:02,000","text":"kept"}`,
	)
	orch := generate.New(streamer)
	state, err := orch.Run(context.Background(), inputs())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Dropped != 2 {
		t.Fatalf("Dropped = %d, want 2", state.Dropped)
	}
	if state.SRT != "2\n00:00:01,000 --> 00:00:02,000\nkept" {
		t.Fatalf("SRT = %q", state.SRT)
	}
}

func TestRunWithNoBlocksSucceedsEmpty(t *testing.T) {
	orch := generate.New(newStreamer("```json\n", "```"))
	state, err := orch.Run(context.Background(), inputs())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Phase != generate.PhaseSuccess || state.SRT != "" || len(state.Blocks) != 0 {
		t.Fatalf("unexpected state %+v", state)
	}
	if state.Dropped != 2 {
		t.Fatalf("Dropped = %d", state.Dropped)
	}
}

func TestRunIOFailureAsksToCheckFiles(t *testing.T) {
	streamer := &fakeStreamer{}
	rec := &recorder{}
	orch := generate.New(streamer, generate.WithObserver(rec.observe))
	in := inputs()
	in.Audio = encoder.PathFile("/nonexistent/audio.wav")

	state, err := orch.Run(context.Background(), in)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if state.Phase != generate.PhaseError || state.Percent != 0 {
		t.Fatalf("unexpected terminal state %s/%d", state.Phase, state.Percent)
	}
	if state.Message != services.MessageCheckFiles {
		t.Fatalf("Message = %q", state.Message)
	}
	if state.DownloadReady() {
		t.Fatal("download must be disabled after failure")
	}
	if !errors.Is(state.Err(), services.ErrIO) {
		t.Fatalf("state.Err() = %v", state.Err())
	}
	if len(streamer.requests) != 0 {
		t.Fatal("model must not be called when the audio cannot be read")
	}
	want := []generate.Phase{generate.PhasePreparing, generate.PhaseUploading, generate.PhaseError}
	if got := rec.phases(); !equalPhases(got, want) {
		t.Fatalf("phases = %v, want %v", got, want)
	}
}

func TestRunTransportFailureKeepsDeliveredBlocks(t *testing.T) {
	streamer := &fakeStreamer{scripts: []script{{
		chunks: []string{`{"id":1,"startTime":"00:00:00,000","endTime":"00:00:01,000","text":"Hi"}` + "\n"},
		err:    errors.New("connection reset"),
	}}}
	orch := generate.New(streamer)
	state, err := orch.Run(context.Background(), inputs())
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if state.Message != services.MessageGenerationFailed {
		t.Fatalf("Message = %q", state.Message)
	}
	if state.Percent != 0 || state.DownloadReady() {
		t.Fatalf("unexpected state %+v", state)
	}
	if len(state.Blocks) != 1 {
		t.Fatalf("delivered blocks should remain, got %d", len(state.Blocks))
	}
	snap := orch.Snapshot()
	if snap.Phase != generate.PhaseError || snap.Message != services.MessageGenerationFailed {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestNewRunSupersedesActiveRun(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	streamer := &fakeStreamer{scripts: []script{
		{
			chunks: []string{
				`{"id":1,"startTime":"00:00:00,000","endTime":"00:00:01,000","text":"old"}` + "\n",
				`{"id":2,"startTime":"00:00:01,000","endTime":"00:00:02,000","text":"late"}` + "\n",
			},
			gate: gate,
		},
		{chunks: []string{`{"id":1,"startTime":"00:00:05,000","endTime":"00:00:06,000","text":"new"}`}},
	}}
	orch := generate.New(streamer, generate.WithIDGenerator(sequentialIDs()))

	firstErr := make(chan error, 1)
	go func() {
		_, err := orch.Run(context.Background(), inputs())
		firstErr <- err
	}()
	waitFor(t, func() bool { return len(orch.Snapshot().Blocks) == 1 })

	state, err := orch.Run(context.Background(), inputs())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if state.RunID != "run-2" || state.SRT != "1\n00:00:05,000 --> 00:00:06,000\nnew" {
		t.Fatalf("unexpected second run state %+v", state)
	}

	if err := <-firstErr; !errors.Is(err, generate.ErrSuperseded) {
		t.Fatalf("first run err = %v, want ErrSuperseded", err)
	}
	snap := orch.Snapshot()
	if snap.RunID != "run-2" || snap.Phase != generate.PhaseSuccess || len(snap.Blocks) != 1 {
		t.Fatalf("stale run leaked into state: %+v", snap)
	}
}

func TestResetCancelsAndReturnsToIdle(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	streamer := &fakeStreamer{scripts: []script{{
		chunks: []string{
			`{"id":1,"startTime":"00:00:00,000","endTime":"00:00:01,000","text":"one"}` + "\n",
			`{"id":2,"startTime":"00:00:01,000","endTime":"00:00:02,000","text":"two"}` + "\n",
		},
		gate: gate,
	}}}
	rec := &recorder{}
	orch := generate.New(streamer, generate.WithObserver(rec.observe))
	runID := orch.Start(context.Background(), inputs())
	if runID == "" {
		t.Fatal("expected a run id")
	}
	waitFor(t, func() bool { return len(orch.Snapshot().Blocks) == 1 })

	orch.Reset()
	snap := orch.Snapshot()
	if snap.Phase != generate.PhaseIdle || snap.Percent != 0 || snap.SRT != "" || len(snap.Blocks) != 0 {
		t.Fatalf("unexpected state after reset %+v", snap)
	}
	rec.mu.Lock()
	lastKind := rec.events[len(rec.events)-1].Kind
	rec.mu.Unlock()
	if lastKind != generate.EventReset {
		t.Fatalf("last event = %s, want reset", lastKind)
	}
	// The cancelled run must not overwrite the idle state.
	time.Sleep(20 * time.Millisecond)
	if got := orch.Snapshot(); got.Phase != generate.PhaseIdle || got.RunID != "" {
		t.Fatalf("cancelled run mutated state: %+v", got)
	}
}

func TestStartReturnsRunID(t *testing.T) {
	orch := generate.New(newStreamer(
		`{"id":1,"startTime":"00:00:00,000","endTime":"00:00:01,000","text":"Hi"}`,
	), generate.WithIDGenerator(func() string { return "fixed" }))
	if id := orch.Start(context.Background(), inputs()); id != "fixed" {
		t.Fatalf("Start returned %q", id)
	}
	waitFor(t, func() bool { return orch.Snapshot().Phase == generate.PhaseSuccess })
	if got := orch.Snapshot().SRT; got != "1\n00:00:00,000 --> 00:00:01,000\nHi" {
		t.Fatalf("SRT = %q", got)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	orch := generate.New(newStreamer(
		`{"id":1,"startTime":"00:00:00,000","endTime":"00:00:01,000","text":"Hi"}`,
	))
	if _, err := orch.Run(context.Background(), inputs()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	snap := orch.Snapshot()
	snap.Blocks[0] = subtitles.Block{ID: 99}
	if orch.Snapshot().Blocks[0].ID != 1 {
		t.Fatal("snapshot shares memory with orchestrator state")
	}
}

func TestIdleSnapshot(t *testing.T) {
	snap := generate.New(&fakeStreamer{}).Snapshot()
	if snap.Phase != generate.PhaseIdle || snap.Blocks == nil || snap.DownloadReady() {
		t.Fatalf("unexpected idle snapshot %+v", snap)
	}
	if snap.FileName() != subtitles.DefaultFileName {
		t.Fatalf("FileName = %q", snap.FileName())
	}
}

func TestWithSnapshotHoldsEventsUntilReturn(t *testing.T) {
	rec := &recorder{}
	orch := generate.New(newStreamer(
		`{"id":1,"startTime":"00:00:00,000","endTime":"00:00:01,000","text":"Hi"}`,
	), generate.WithObserver(rec.observe))

	entered := make(chan struct{})
	release := make(chan struct{})
	var seen generate.State
	go orch.WithSnapshot(func(st generate.State) {
		seen = st
		close(entered)
		<-release
	})
	<-entered

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = orch.Run(context.Background(), inputs())
	}()
	time.Sleep(30 * time.Millisecond)
	rec.mu.Lock()
	held := len(rec.events)
	rec.mu.Unlock()
	if held != 0 {
		t.Fatalf("observer saw %d event(s) while the snapshot was held", held)
	}
	if seen.Phase != generate.PhaseIdle {
		t.Fatalf("snapshot phase = %s", seen.Phase)
	}

	close(release)
	<-done
	if got := rec.phases(); len(got) == 0 || got[len(got)-1] != generate.PhaseSuccess {
		t.Fatalf("phases after release = %v", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func equalPhases(a, b []generate.Phase) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
