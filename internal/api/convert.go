package api

import (
	"time"

	"subgen/internal/generate"
	"subgen/internal/history"
	"subgen/internal/preflight"
	"subgen/internal/subtitles"
)

// FromState converts an orchestrator snapshot to its API representation.
func FromState(st generate.State) State {
	blocks := st.Blocks
	if blocks == nil {
		blocks = []subtitles.Block{}
	}
	return State{
		RunID:          st.RunID,
		TranscriptName: st.TranscriptName,
		AudioName:      st.AudioName,
		Phase:          st.Phase.String(),
		Percent:        st.Percent,
		Busy:           st.Phase.Busy(),
		Blocks:         blocks,
		SRT:            st.SRT,
		Dropped:        st.Dropped,
		Message:        st.Message,
		DownloadReady:  st.DownloadReady(),
		FileName:       st.FileName(),
		StartedAt:      FormatTime(st.StartedAt),
		FinishedAt:     FormatTime(st.FinishedAt),
	}
}

// FromEvent converts an observer event to a websocket message. Block events
// stay constant in size; subscribers append Cue to what they already hold.
func FromEvent(evt generate.Event) StreamMessage {
	msg := StreamMessage{Kind: string(evt.Kind), RunID: evt.RunID}
	if evt.Kind == generate.EventBlock && evt.Block != nil {
		st := evt.State
		msg.Block = evt.Block
		msg.Cue = subtitles.FormatBlock(*evt.Block)
		msg.Progress = &Progress{
			Phase:   st.Phase.String(),
			Percent: st.Percent,
			Busy:    st.Phase.Busy(),
			Blocks:  len(st.Blocks),
			Dropped: st.Dropped,
		}
		return msg
	}
	state := FromState(evt.State)
	msg.State = &state
	return msg
}

// SnapshotMessage is the first message a new subscriber receives.
func SnapshotMessage(st generate.State) StreamMessage {
	state := FromState(st)
	return StreamMessage{Kind: "snapshot", RunID: st.RunID, State: &state}
}

// FromRun converts a history row. The SRT body is carried only when the row has one.
func FromRun(run history.Run) Run {
	return Run{
		ID:             run.ID,
		TranscriptName: run.TranscriptName,
		AudioName:      run.AudioName,
		Model:          run.Model,
		Status:         string(run.Status),
		Blocks:         run.Blocks,
		Dropped:        run.Dropped,
		ErrorMessage:   run.ErrorMessage,
		FileName:       subtitles.OutputName(run.AudioName),
		StartedAt:      FormatTime(run.StartedAt),
		FinishedAt:     FormatTime(run.FinishedAt),
		DurationSec:    run.Duration().Seconds(),
		SRT:            run.SRT,
	}
}

// FromRuns converts a slice of history rows.
func FromRuns(runs []history.Run) []Run {
	out := make([]Run, 0, len(runs))
	for _, run := range runs {
		out = append(out, FromRun(run))
	}
	return out
}

// FromSummary converts history counts.
func FromSummary(s history.Summary) HistorySummary {
	return HistorySummary{
		Total:     s.Total,
		Running:   s.Running,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Cancelled: s.Cancelled,
	}
}

// FromResults converts preflight results.
func FromResults(results []preflight.Result) []Check {
	out := make([]Check, 0, len(results))
	for _, r := range results {
		out = append(out, Check{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

// FormatTime renders t for payloads; the zero time renders empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// ParseTime parses a payload timestamp, returning the zero time on failure.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
