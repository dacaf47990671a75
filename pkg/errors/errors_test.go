package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("generate: %w", Clone(ErrLocked, "week is being generated"))

	appErr := FromError(wrapped)
	assert.Equal(t, ErrLocked.Code, appErr.Code)
	assert.Equal(t, http.StatusLocked, appErr.Status)
	assert.Equal(t, "week is being generated", appErr.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.EqualError(t, appErr, "internal server error: boom")
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(Clone(ErrLocked, "")))
	assert.False(t, Retryable(ErrConflict))
	assert.False(t, Retryable(errors.New("plain")))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrValidation, "week is required")
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.Equal(t, "week is required", clone.Message)
}
