package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "required field error",
			field:    "title",
			message:  "Title is required",
			expected: "validation error on field 'title': Title is required",
		},
		{
			name:     "date ordering error",
			field:    "preSubmissionDate",
			message:  "Pre-submission date must be before deadline",
			expected: "validation error on field 'preSubmissionDate': Pre-submission date must be before deadline",
		},
		{
			name:     "empty message",
			field:    "source",
			message:  "",
			expected: "validation error on field 'source': ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ValidationError{Field: tt.field, Message: tt.message}
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("AddTask: %w", &ValidationError{Field: "deadline", Message: "Deadline is required"})

	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.False(t, errors.Is(err, ErrNotFound))

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "deadline", ve.Field)
}
