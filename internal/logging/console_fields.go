package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const (
	logTimestampLayout = "2006-01-02 15:04:05"
	maxInfoValueLength = 160
)

// infoHighlightKeys are printed first, in this order, when present.
var infoHighlightKeys = []string{
	FieldEventType,
	"error",
	FieldErrorHint,
	FieldImpact,
	FieldProgressPercent,
	"transcript",
	"audio",
	"mime_type",
	"audio_bytes",
	"blocks",
	"lines_dropped",
	"output",
	"duration",
}

func writeFields(buf *bytes.Buffer, attrs []kv, debug bool) {
	if len(attrs) == 0 {
		return
	}
	used := make([]bool, len(attrs))
	write := func(item kv) {
		value := formatValueForKey(item.key, item.value)
		if !debug && len(value) > maxInfoValueLength {
			value = value[:maxInfoValueLength] + "..."
		}
		buf.WriteString("    - ")
		if debug {
			buf.WriteString(item.key)
		} else {
			buf.WriteString(displayLabel(item.key))
		}
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteByte('\n')
	}
	for _, key := range infoHighlightKeys {
		for idx, item := range attrs {
			if !used[idx] && item.key == key {
				used[idx] = true
				write(item)
				break
			}
		}
	}
	for idx, item := range attrs {
		if used[idx] {
			continue
		}
		if !debug && isDebugOnlyKey(item.key) {
			continue
		}
		write(item)
	}
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case FieldCorrelationID, "base_url", "model_endpoint", "chunk_bytes":
		return true
	}
	return strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case FieldProgressPercent:
		return "Progress"
	case "mime_type":
		return "MIME Type"
	case "lines_dropped":
		return "Dropped"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		if part == "" {
			continue
		}
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case strings.HasSuffix(key, "_bytes") && v.Kind() == slog.KindInt64:
		return formatBytes(v.Int64())
	case key == FieldProgressPercent && (v.Kind() == slog.KindInt64 || v.Kind() == slog.KindFloat64):
		return formatValue(v) + "%"
	case v.Kind() == slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	return formatValue(v)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(time.Local).Format(logTimestampLayout)
}

func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return formatValue(v)
	}
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		s = attrString(v)
	default:
		s = v.String()
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r < ' ' || r == '"' {
			return true
		}
	}
	return false
}
