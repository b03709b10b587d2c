package generate_test

import (
	"errors"
	"path/filepath"
	"testing"

	"subgen/internal/generate"
)

func TestRunLockExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "generate.lock")
	first := generate.NewRunLock(path)
	if err := first.Acquire(); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	t.Cleanup(func() { _ = first.Release() })

	second := generate.NewRunLock(path)
	if err := second.Acquire(); !errors.Is(err, generate.ErrLocked) {
		t.Fatalf("second Acquire = %v, want ErrLocked", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := second.Acquire(); err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if err := second.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}

func TestRunLockReleaseWithoutAcquire(t *testing.T) {
	lock := generate.NewRunLock(filepath.Join(t.TempDir(), "generate.lock"))
	if err := lock.Release(); err != nil {
		t.Fatalf("Release on unlocked lock: %v", err)
	}
	if lock.Path() == "" {
		t.Fatal("expected lock path")
	}
}
