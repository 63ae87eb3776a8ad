package services_test

import (
	"errors"
	"testing"

	"skipdetect/internal/services"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	base := errors.New("exit status 1")
	err := services.Wrap(services.ErrFingerprint, "chromaprint", "extract", "ffmpeg failed", base)
	if !errors.Is(err, services.ErrFingerprint) {
		t.Fatalf("expected fingerprint marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrapDefaultsToFingerprint(t *testing.T) {
	err := services.Wrap(nil, "queue", "build", "boom", nil)
	if !errors.Is(err, services.ErrFingerprint) {
		t.Fatalf("nil marker should default to ErrFingerprint, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	fatal := services.Wrap(services.ErrBackendUnavailable, "deps", "check", "ffmpeg missing", nil)
	if !services.IsFatal(fatal) {
		t.Fatal("backend unavailable should be fatal")
	}
	if !services.IsFatal(services.Wrap(services.ErrNoWork, "queue", "build", "empty", nil)) {
		t.Fatal("no work should be fatal")
	}
	if services.IsFatal(services.Wrap(services.ErrFingerprint, "unit", "analyze", "bad file", nil)) {
		t.Fatal("fingerprint errors are per-unit, not fatal")
	}
	if services.IsFatal(services.Wrap(services.ErrConfiguration, "queue", "build", "library missing", nil)) {
		t.Fatal("configuration errors skip the library, not the run")
	}
}
