package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBackendUnavailable marks a missing or incompatible media backend.
	// It is fatal for the whole analysis run.
	ErrBackendUnavailable = errors.New("media backend unavailable")

	// ErrNoWork marks an empty analysis queue, usually a sign of
	// misconfigured library names. Fatal for the run.
	ErrNoWork = errors.New("nothing to analyze")

	// ErrFingerprint marks a backend failure on a specific file or pair of
	// files. Caught at the unit boundary; other units are unaffected.
	ErrFingerprint = errors.New("fingerprint error")

	// ErrConfiguration marks invalid or unusable configuration values.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrFingerprint
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error should abort the entire analysis run
// rather than just the unit that produced it.
func IsFatal(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrNoWork)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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
