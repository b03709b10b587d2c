package subtitles

import "testing"

func TestAssemblerSingleBlock(t *testing.T) {
	var a Assembler
	a.Append(Block{ID: 1, StartTime: "00:00:00,000", EndTime: "00:00:01,000", Text: "Hi"})
	if got := a.String(); got != "1\n00:00:00,000 --> 00:00:01,000\nHi\n\n" {
		t.Fatalf("unexpected accumulated text %q", got)
	}
	if got := a.Finalize(); got != "1\n00:00:00,000 --> 00:00:01,000\nHi" {
		t.Fatalf("unexpected finalized text %q", got)
	}
	if a.Len() != 1 {
		t.Fatalf("expected 1 block, got %d", a.Len())
	}
}

func TestAssemblerKeepsArrivalOrder(t *testing.T) {
	var a Assembler
	a.Append(Block{ID: 2, StartTime: "00:00:02,000", EndTime: "00:00:03,000", Text: "second"})
	a.Append(Block{ID: 1, StartTime: "00:00:00,000", EndTime: "00:00:01,000", Text: "first"})
	want := "2\n00:00:02,000 --> 00:00:03,000\nsecond\n\n1\n00:00:00,000 --> 00:00:01,000\nfirst"
	if got := a.Finalize(); got != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", got, want)
	}
}

func TestAssembleIsIdempotent(t *testing.T) {
	blocks := []Block{
		{ID: 1, StartTime: "00:00:00,000", EndTime: "00:00:01,000", Text: "one"},
		{ID: 2, StartTime: "00:00:01,500", EndTime: "00:00:03,000", Text: "two"},
	}
	first := Assemble(blocks)
	second := Assemble(blocks)
	if first != second {
		t.Fatalf("expected identical output, got %q and %q", first, second)
	}
}

func TestAssemblerReset(t *testing.T) {
	var a Assembler
	a.Append(Block{ID: 1, StartTime: "a", EndTime: "b", Text: "c"})
	a.Reset()
	if a.Len() != 0 || a.Finalize() != "" {
		t.Fatalf("expected empty assembler after reset, got %d %q", a.Len(), a.Finalize())
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"interview.mp3", "interview.srt"},
		{"/tmp/talks/keynote.final.m4a", "keynote.final.srt"},
		{"noext", "noext.srt"},
		{"", DefaultFileName},
		{"   ", DefaultFileName},
		{".wav", DefaultFileName},
		{`C:\Users\me\talk.mp3`, "talk.srt"},
		{"q&a: part 1?.wav", "q&a- part 1.srt"},
		{"/tmp/", DefaultFileName},
	}
	for _, tt := range tests {
		if got := OutputName(tt.in); got != tt.want {
			t.Fatalf("OutputName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBlockMatchesAppend(t *testing.T) {
	block := Block{ID: 3, StartTime: "00:00:04,000", EndTime: "00:00:05,500", Text: "Third"}
	var a Assembler
	a.Append(block)
	if got := FormatBlock(block); got != a.String() || got != "3\n00:00:04,000 --> 00:00:05,500\nThird\n\n" {
		t.Fatalf("FormatBlock = %q", got)
	}
}
