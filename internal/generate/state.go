package generate

import (
	"slices"
	"time"

	"subgen/internal/subtitles"
)

// State is a snapshot of the orchestrator. Values handed out are copies and
// never change after delivery.
type State struct {
	RunID          string            `json:"runId,omitempty"`
	TranscriptName string            `json:"transcriptName,omitempty"`
	AudioName      string            `json:"audioName,omitempty"`
	Phase          Phase             `json:"phase"`
	Percent        int               `json:"percent"`
	Blocks         []subtitles.Block `json:"blocks"`
	SRT            string            `json:"srt"`
	Dropped        int               `json:"dropped"`
	Message        string            `json:"message,omitempty"`
	StartedAt      time.Time         `json:"startedAt,omitzero"`
	FinishedAt     time.Time         `json:"finishedAt,omitzero"`

	err error
}

// Err returns the internal failure behind an error phase. It is never
// serialized; Message carries the user-facing text.
func (s State) Err() error {
	return s.err
}

// DownloadReady reports whether the SRT can be exported.
func (s State) DownloadReady() bool {
	return s.Phase == PhaseSuccess
}

// FileName is the suggested download name for the SRT.
func (s State) FileName() string {
	return subtitles.OutputName(s.AudioName)
}

// Duration is the elapsed run time, or zero while the run is in flight.
func (s State) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s State) clone() State {
	s.Blocks = slices.Clone(s.Blocks)
	if s.Blocks == nil {
		s.Blocks = []subtitles.Block{}
	}
	return s
}

// EventKind distinguishes observer notifications.
type EventKind string

const (
	// EventPhase fires on every phase transition, including the terminal one.
	EventPhase EventKind = "phase"
	// EventBlock fires once per accepted subtitle block.
	EventBlock EventKind = "block"
	// EventReset fires when the state returns to idle.
	EventReset EventKind = "reset"
)

// Event is delivered to observers after the state has changed.
type Event struct {
	Kind  EventKind        `json:"kind"`
	RunID string           `json:"runId,omitempty"`
	State State            `json:"state"`
	Block *subtitles.Block `json:"block,omitempty"`
}

// Observer receives events synchronously on the run's goroutine, in order.
// Observers must not call back into the Orchestrator.
type Observer func(Event)
