package subtitles

import (
	"testing"
	"time"
)

func TestInspectCountsCuesAndBounds(t *testing.T) {
	content := Assemble([]Block{
		{ID: 1, StartTime: "00:00:01,000", EndTime: "00:00:02,500", Text: "one"},
		{ID: 2, StartTime: "00:00:03,000", EndTime: "00:01:04,250", Text: "two"},
	})
	report := Inspect(content)
	if report.Cues != 2 {
		t.Fatalf("expected 2 cues, got %d", report.Cues)
	}
	if report.First != time.Second {
		t.Fatalf("unexpected first %v", report.First)
	}
	if report.Last != 64*time.Second+250*time.Millisecond {
		t.Fatalf("unexpected last %v", report.Last)
	}
	if report.Span() != 63*time.Second+250*time.Millisecond {
		t.Fatalf("unexpected span %v", report.Span())
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", report.Issues)
	}
}

func TestInspectEmpty(t *testing.T) {
	report := Inspect("  \n")
	if report.Cues != 0 || len(report.Issues) != 1 || report.Issues[0] != "empty_subtitle_file" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestInspectFlagsBadTimestamps(t *testing.T) {
	content := Assemble([]Block{
		{ID: 1, StartTime: "soon", EndTime: "later", Text: "one"},
		{ID: 2, StartTime: "00:00:05,000", EndTime: "00:00:04,000", Text: "two"},
	})
	report := Inspect(content)
	if report.Cues != 2 {
		t.Fatalf("expected 2 cues, got %d", report.Cues)
	}
	if len(report.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %v", report.Issues)
	}
}
