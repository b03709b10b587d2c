package logs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"subgen/internal/logging"
)

const (
	pollInterval   = 250 * time.Millisecond
	readBufferSize = 64 * 1024
)

// Options controls a tail read. A negative Offset starts from the last Limit
// matching lines.
type Options struct {
	Offset int64
	Limit  int
	RunID  string
}

// Result carries matching lines and the offset to resume from.
type Result struct {
	Lines  []string
	Offset int64
}

// Tail reads path once. A missing file yields an empty result.
func Tail(path string, opts Options) (Result, error) {
	size, err := fileSize(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, nil
		}
		return Result{Offset: opts.Offset}, err
	}
	if opts.Offset < 0 {
		return readLast(path, opts.Limit, opts.RunID)
	}
	offset := opts.Offset
	if offset > size {
		// lumberjack rotated the file; start again from the top
		offset = 0
	}
	return readForward(path, offset, opts.RunID)
}

// Follow emits the initial tail, then polls for new lines until ctx ends.
func Follow(ctx context.Context, path string, opts Options, emit func(string)) error {
	result, err := Tail(path, opts)
	if err != nil {
		return err
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		for _, line := range result.Lines {
			emit(line)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		next := opts
		next.Offset = result.Offset
		if result, err = Tail(path, next); err != nil {
			return err
		}
	}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, err
		}
		return 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("log path %q is a directory", path)
	}
	return info.Size(), nil
}

func readLast(path string, limit int, runID string) (Result, error) {
	var result Result
	if limit <= 0 {
		size, err := fileSize(path)
		if err != nil {
			return result, err
		}
		result.Offset = size
		return result, nil
	}

	ring := make([]string, limit)
	count, idx := 0, 0
	offset, err := scan(path, 0, runID, func(line string) {
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return result, err
	}

	result.Offset = offset
	result.Lines = make([]string, count)
	if count == limit {
		for i := range count {
			result.Lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(result.Lines, ring[:count])
	}
	return result, nil
}

func readForward(path string, offset int64, runID string) (Result, error) {
	result := Result{Offset: offset}
	end, err := scan(path, offset, runID, func(line string) {
		result.Lines = append(result.Lines, line)
	})
	if err != nil {
		return result, err
	}
	result.Offset = end
	return result, nil
}

// scan visits matching complete lines from offset and returns the offset
// after the last complete line, so a half-written line is picked up later.
func scan(path string, offset int64, runID string, visit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReaderSize(file, readBufferSize)
	pos := offset
	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return pos, nil
			}
			return pos, fmt.Errorf("read log file: %w", err)
		}
		pos += int64(len(raw))
		line := strings.TrimRight(raw, "\r\n")
		if matchesRun(line, runID) {
			visit(line)
		}
	}
}

func matchesRun(line, runID string) bool {
	if runID == "" {
		return true
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return false
	}
	value, _ := fields[logging.FieldRunID].(string)
	return value == runID
}
