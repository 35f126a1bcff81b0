package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrUnsolvableGrid, "only 2 tiles matched")
	assert.Equal(t, "[UNSOLVABLE_GRID] only 2 tiles matched", err.Error())

	cause := errors.New("boom")
	err = err.WithCause(cause)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestErrorCodeExtraction(t *testing.T) {
	err := NewError(ErrStaleElement, "node detached").WithRetryable(true)
	wrapped := fmt.Errorf("reading tile urls: %w", err)

	assert.True(t, IsRetryable(wrapped))
	assert.Equal(t, ErrStaleElement, GetErrorCode(wrapped))
	assert.True(t, IsErrorCode(wrapped, ErrStaleElement))
	assert.False(t, IsErrorCode(wrapped, ErrNotReady))

	assert.False(t, IsRetryable(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
}
