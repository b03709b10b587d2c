package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Report summarizes assembled SubRip content for display and history.
type Report struct {
	Cues   int
	First  time.Duration
	Last   time.Duration
	Issues []string
}

// Span is the time covered from the first cue start to the last cue end.
func (r Report) Span() time.Duration {
	if r.Last <= r.First {
		return 0
	}
	return r.Last - r.First
}

// Inspect counts cues and timestamp bounds in SubRip text. Timestamps that do
// not parse are reported as issues but never rewritten.
func Inspect(content string) Report {
	var report Report
	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if content == "" {
		report.Issues = append(report.Issues, "empty_subtitle_file")
		return report
	}
	for _, block := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(block) != "" {
			report.Cues++
		}
	}

	first := math.Inf(1)
	var last float64
	found := false
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.Split(line, "-->")
		if len(parts) != 2 {
			continue
		}
		start, errStart := parseSRTTimestamp(parts[0])
		end, errEnd := parseSRTTimestamp(parts[1])
		if errStart != nil || errEnd != nil {
			report.Issues = append(report.Issues, fmt.Sprintf("invalid_timestamp: %s", strings.TrimSpace(line)))
			continue
		}
		if end < start {
			report.Issues = append(report.Issues, fmt.Sprintf("end_before_start: %s", strings.TrimSpace(line)))
		}
		found = true
		if start < first {
			first = start
		}
		if end > last {
			last = end
		}
	}
	if !found {
		report.Issues = append(report.Issues, "no_valid_timestamps")
		return report
	}
	report.First = secondsToDuration(first)
	report.Last = secondsToDuration(last)
	return report
}

func parseSRTTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	// Normalize period to comma (SRT standard uses comma for milliseconds)
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}
