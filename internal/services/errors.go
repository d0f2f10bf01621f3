package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks network and rate-limit failures that surfaced after
	// the collaborator client exhausted its own retries.
	ErrTransient = errors.New("transient failure")
	// ErrMalformed marks responses whose shape the client could not decode.
	ErrMalformed = errors.New("malformed response")
	// ErrNotFound marks a definitive no-match outcome. It is cacheable and is
	// not treated as a failure.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks missing or invalid settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrStateCorrupt marks unreadable or inconsistent persisted state. Runs
	// abort on it rather than silently discarding history.
	ErrStateCorrupt = errors.New("state corruption")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// RunFatal reports whether the error must abort the whole run instead of the
// current show.
func RunFatal(err error) bool {
	return errors.Is(err, ErrStateCorrupt) || errors.Is(err, ErrConfiguration)
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
