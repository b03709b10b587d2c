package history

import "time"

// Status is the lifecycle of a persisted run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// AbandonedReason is stored on runs that were still running when a process exited.
const AbandonedReason = "Run interrupted before completion"

// Run is one generation attempt.
type Run struct {
	ID             string    `json:"id"`
	TranscriptName string    `json:"transcriptName,omitempty"`
	AudioName      string    `json:"audioName,omitempty"`
	Model          string    `json:"model,omitempty"`
	Status         Status    `json:"status"`
	Blocks         int       `json:"blocks"`
	Dropped        int       `json:"dropped"`
	SRT            string    `json:"srt,omitempty"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt,omitzero"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Duration is the wall time of a finished run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Terminal reports whether the run has stopped.
func (r Run) Terminal() bool {
	return r.Status != StatusRunning
}

// Summary aggregates run counts for status output.
type Summary struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}
