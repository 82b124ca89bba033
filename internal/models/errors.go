package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when request input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrExtraction is returned when a buffer is not a readable PDF.
	ErrExtraction = errors.New("pdf extraction failed")
	// ErrNoIndex is returned when a question arrives before any ingest.
	ErrNoIndex = errors.New("no index found")
	// ErrEmptyIndex is returned when an index would be built from zero chunks.
	ErrEmptyIndex = errors.New("no chunks to index")
	// ErrIndexLoad is returned when the persisted index is missing or unreadable.
	ErrIndexLoad = errors.New("failed to load index")
	// ErrExternalService is returned when an embedding or chat call fails.
	ErrExternalService = errors.New("external service error")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ExtractionError names the file whose text could not be extracted.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("failed to extract pdf text: %v", e.Err)
	}
	return fmt.Sprintf("failed to extract pdf text from %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// UpstreamError wraps a failed call to the embedding or chat service.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s service failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool {
	return target == ErrExternalService
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
