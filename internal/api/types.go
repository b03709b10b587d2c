package api

import "subgen/internal/subtitles"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// State describes the orchestrator snapshot.
type State struct {
	RunID          string            `json:"runId,omitempty"`
	TranscriptName string            `json:"transcriptName,omitempty"`
	AudioName      string            `json:"audioName,omitempty"`
	Phase          string            `json:"phase"`
	Percent        int               `json:"percent"`
	Busy           bool              `json:"busy"`
	Blocks         []subtitles.Block `json:"blocks"`
	SRT            string            `json:"srt"`
	Dropped        int               `json:"dropped"`
	Message        string            `json:"message,omitempty"`
	DownloadReady  bool              `json:"downloadReady"`
	FileName       string            `json:"fileName"`
	StartedAt      string            `json:"startedAt,omitempty"`
	FinishedAt     string            `json:"finishedAt,omitempty"`
}

// StreamMessage is pushed to websocket subscribers. Block messages carry the
// block, its SubRip cue, and Progress; every other kind carries the full State.
type StreamMessage struct {
	Kind     string           `json:"kind"`
	RunID    string           `json:"runId,omitempty"`
	Block    *subtitles.Block `json:"block,omitempty"`
	Cue      string           `json:"cue,omitempty"`
	Progress *Progress        `json:"progress,omitempty"`
	State    *State           `json:"state,omitempty"`
}

// Progress is the small counter set sent with each block.
type Progress struct {
	Phase   string `json:"phase"`
	Percent int    `json:"percent"`
	Busy    bool   `json:"busy"`
	Blocks  int    `json:"blocks"`
	Dropped int    `json:"dropped"`
}

// Run describes a history row.
type Run struct {
	ID             string  `json:"id"`
	TranscriptName string  `json:"transcriptName,omitempty"`
	AudioName      string  `json:"audioName,omitempty"`
	Model          string  `json:"model,omitempty"`
	Status         string  `json:"status"`
	Blocks         int     `json:"blocks"`
	Dropped        int     `json:"dropped"`
	ErrorMessage   string  `json:"errorMessage,omitempty"`
	FileName       string  `json:"fileName"`
	StartedAt      string  `json:"startedAt,omitempty"`
	FinishedAt     string  `json:"finishedAt,omitempty"`
	DurationSec    float64 `json:"durationSeconds"`
	SRT            string  `json:"srt,omitempty"`
}

// RunListResponse wraps a collection of runs.
type RunListResponse struct {
	Runs []Run `json:"runs"`
}

// HistorySummary mirrors run counts by status.
type HistorySummary struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Check is one readiness result.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Status aggregates runtime information for the status command and endpoint.
type Status struct {
	Model       string         `json:"model"`
	HistoryPath string         `json:"historyPath"`
	LockPath    string         `json:"lockPath"`
	OutputDir   string         `json:"outputDir"`
	History     HistorySummary `json:"history"`
	Checks      []Check        `json:"checks"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GenerateResponse acknowledges a started run.
type GenerateResponse struct {
	RunID string `json:"runId"`
}
