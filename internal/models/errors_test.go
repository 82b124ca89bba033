package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name    string
		err     error
		target  error
		message string
	}{
		{
			name:    "validation",
			err:     &ValidationError{Field: "message", Message: "required"},
			target:  ErrInvalidInput,
			message: "validation error on field message: required",
		},
		{
			name:    "extraction with filename",
			err:     &ExtractionError{Filename: "a.pdf", Err: cause},
			target:  ErrExtraction,
			message: "failed to extract pdf text from a.pdf: boom",
		},
		{
			name:    "extraction without filename",
			err:     &ExtractionError{Err: cause},
			target:  ErrExtraction,
			message: "failed to extract pdf text: boom",
		},
		{
			name:    "upstream",
			err:     &UpstreamError{Service: "chat", Err: cause},
			target:  ErrExternalService,
			message: "chat service failed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.target)
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestErrorUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	assert.ErrorIs(t, &UpstreamError{Service: "embedding", Err: cause}, cause)
	assert.ErrorIs(t, &ExtractionError{Filename: "a.pdf", Err: cause}, cause)
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "context"))

	err := WrapError(ErrNoIndex, "failed to answer")
	assert.EqualError(t, err, "failed to answer: no index found")
	assert.ErrorIs(t, err, ErrNoIndex)
}

func TestRetrievalStrategyString(t *testing.T) {
	assert.Equal(t, "semantic", StrategySemantic.String())
	assert.Equal(t, "whole_document", StrategyWholeDocument.String())
}
