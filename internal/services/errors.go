package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIO            = errors.New("io error")
	ErrTransport     = errors.New("transport error")
	ErrParse         = errors.New("parse error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
)

const (
	// MessageCheckFiles is shown when an input file could not be read.
	MessageCheckFiles = "Could not read the selected files. Please check your files and try again."
	// MessageGenerationFailed is shown for every other failure.
	MessageGenerationFailed = "Subtitle generation failed. Please try again."
)

// Wrap builds an error message that includes phase context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, phase, operation, message string, err error) error {
	detail := buildDetail(phase, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// UserMessage maps an error to the single message surfaced to the user. No
// internal detail leaks through.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrIO) {
		return MessageCheckFiles
	}
	return MessageGenerationFailed
}

func buildDetail(phase, operation, message string) string {
	parts := make([]string, 0, 3)
	if phase = strings.TrimSpace(phase); phase != "" {
		parts = append(parts, phase)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
