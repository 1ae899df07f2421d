package pacs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks lookups that reference an unknown patient key.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks requests carrying malformed required metadata.
	ErrValidation = errors.New("validation error")
	// ErrUnavailable marks features whose optional external dependency is missing.
	ErrUnavailable = errors.New("dependency unavailable")
	// ErrRecognition marks text-recognition failures other than a missing engine.
	ErrRecognition = errors.New("recognition error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker so callers can classify the failure with errors.Is.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = errors.New("failure")
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
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
