package subtitles

import (
	"errors"
	"testing"
)

func TestDecodeBlockValid(t *testing.T) {
	block, err := DecodeBlock([]byte(`{"id":1,"startTime":"00:00:00,000","endTime":"00:00:02,500","text":"Hello"}`))
	if err != nil {
		t.Fatalf("DecodeBlock returned error: %v", err)
	}
	want := Block{ID: 1, StartTime: "00:00:00,000", EndTime: "00:00:02,500", Text: "Hello"}
	if block != want {
		t.Fatalf("unexpected block: got %+v want %+v", block, want)
	}
}

func TestDecodeBlockKeepsEscapedNewlines(t *testing.T) {
	block, err := DecodeBlock([]byte(`{"id":3,"startTime":"00:00:05,000","endTime":"00:00:06,000","text":"line one\nline two"}`))
	if err != nil {
		t.Fatalf("DecodeBlock returned error: %v", err)
	}
	if block.Text != "line one\nline two" {
		t.Fatalf("expected embedded newline, got %q", block.Text)
	}
}

func TestDecodeBlockIgnoresExtraFields(t *testing.T) {
	block, err := DecodeBlock([]byte(`{"id":2,"startTime":"a","endTime":"b","text":"c","speaker":"x"}`))
	if err != nil {
		t.Fatalf("DecodeBlock returned error: %v", err)
	}
	if block.ID != 2 {
		t.Fatalf("unexpected id %d", block.ID)
	}
}

func TestDecodeBlockAcceptsIntegralFloatID(t *testing.T) {
	block, err := DecodeBlock([]byte(`{"id":4.0,"startTime":"a","endTime":"b","text":"c"}`))
	if err != nil {
		t.Fatalf("DecodeBlock returned error: %v", err)
	}
	if block.ID != 4 {
		t.Fatalf("unexpected id %d", block.ID)
	}
}

func TestDecodeBlockAcceptsLargestID(t *testing.T) {
	block, err := DecodeBlock([]byte(`{"id":2147483647,"startTime":"a","endTime":"b","text":"c"}`))
	if err != nil {
		t.Fatalf("DecodeBlock returned error: %v", err)
	}
	if block.ID != 2147483647 {
		t.Fatalf("unexpected id %d", block.ID)
	}
}

func TestDecodeBlockRejectsInvalidRecords(t *testing.T) {
	tests := []struct {
		name   string
		record string
		target error
	}{
		{"missing text", `{"id":1,"startTime":"00:00:00,000","endTime":"00:00:01,000"}`, errMissingField},
		{"missing id", `{"startTime":"00:00:00,000","endTime":"00:00:01,000","text":"x"}`, errMissingField},
		{"string id", `{"id":"1","startTime":"a","endTime":"b","text":"c"}`, errFieldType},
		{"fractional id", `{"id":1.5,"startTime":"a","endTime":"b","text":"c"}`, errFieldType},
		{"zero id", `{"id":0,"startTime":"a","endTime":"b","text":"c"}`, errFieldType},
		{"negative id", `{"id":-3,"startTime":"a","endTime":"b","text":"c"}`, errFieldType},
		{"huge float id", `{"id":1e300,"startTime":"a","endTime":"b","text":"c"}`, errFieldType},
		{"id past int32", `{"id":2147483648,"startTime":"a","endTime":"b","text":"c"}`, errFieldType},
		{"numeric text", `{"id":1,"startTime":"a","endTime":"b","text":7}`, errFieldType},
		{"null start", `{"id":1,"startTime":null,"endTime":"b","text":"c"}`, errFieldType},
		{"array", `[{"id":1}]`, errNotObject},
		{"prose", `NOT JSON`, errNotObject},
		{"code fence", "```json", errNotObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBlock([]byte(tt.record))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestDecodeBlockRejectsTrailingGarbage(t *testing.T) {
	if _, err := DecodeBlock([]byte(`{"id":1,"startTime":"a","endTime":"b","text":"c"} trailing`)); err == nil {
		t.Fatal("expected error for trailing content")
	}
}
