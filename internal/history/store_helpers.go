package history

import (
	"database/sql"
	"errors"
	"time"
)

const (
	listColumns = "id, transcript_name, audio_name, model, status, blocks, dropped, error_message, started_at, finished_at, updated_at"
	runColumns  = listColumns + ", srt"
)

type scanner interface{ Scan(dest ...any) error }

func scanListRun(row scanner) (*Run, error) {
	run, _, err := scanRunFields(row, false)
	return run, err
}

func scanRun(row scanner) (*Run, error) {
	run, srt, err := scanRunFields(row, true)
	if err != nil {
		return nil, err
	}
	run.SRT = srt
	return run, nil
}

func scanRunFields(row scanner, withSRT bool) (*Run, string, error) {
	var (
		id             string
		transcriptName sql.NullString
		audioName      sql.NullString
		model          sql.NullString
		status         string
		blocks         int
		dropped        int
		errorMessage   sql.NullString
		startedRaw     string
		finishedRaw    sql.NullString
		updatedRaw     string
		srt            sql.NullString
	)
	dest := []any{
		&id, &transcriptName, &audioName, &model, &status, &blocks, &dropped,
		&errorMessage, &startedRaw, &finishedRaw, &updatedRaw,
	}
	if withSRT {
		dest = append(dest, &srt)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, "", err
	}

	run := &Run{
		ID:             id,
		TranscriptName: transcriptName.String,
		AudioName:      audioName.String,
		Model:          model.String,
		Status:         Status(status),
		Blocks:         blocks,
		Dropped:        dropped,
		ErrorMessage:   errorMessage.String,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = finished
		}
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		run.UpdatedAt = updated
	}
	return run, srt.String, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
