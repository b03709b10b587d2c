package services_test

import (
	"errors"
	"strings"
	"testing"

	"subgen/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransport, "generating", "stream", "read failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"generating", "stream", "read failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestUserMessageMapping(t *testing.T) {
	ioErr := services.Wrap(services.ErrIO, "preparing", "read transcript", "", errors.New("denied"))
	if got := services.UserMessage(ioErr); got != services.MessageCheckFiles {
		t.Fatalf("expected check-files message, got %q", got)
	}

	transportErr := services.Wrap(services.ErrTransport, "generating", "stream", "", errors.New("reset"))
	if got := services.UserMessage(transportErr); got != services.MessageGenerationFailed {
		t.Fatalf("expected generic message, got %q", got)
	}
	if strings.Contains(services.UserMessage(transportErr), "reset") {
		t.Fatal("user message must not leak internal detail")
	}

	if got := services.UserMessage(nil); got != "" {
		t.Fatalf("expected empty message for nil error, got %q", got)
	}
}
