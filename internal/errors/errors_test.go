package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesMetadataFromCode(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{"config", ErrCodeConfigInvalid, CategoryConfig, SeverityFatal, false},
		{"paper not found", ErrCodePaperNotFound, CategoryIO, SeverityError, false},
		{"embedder timeout", ErrCodeEmbedderTimeout, CategoryNetwork, SeverityError, true},
		{"dimension mismatch", ErrCodeDimensionMismatch, CategoryValidation, SeverityError, false},
		{"empty query", ErrCodeQueryEmpty, CategoryValidation, SeverityInfo, false},
		{"internal", ErrCodeInternal, CategoryInternal, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Contains(t, err.Error(), tt.code)
		})
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestError_UnwrapAndIs(t *testing.T) {
	cause := stderrors.New("disk on fire")
	err := Wrap(ErrCodeStoreUnavailable, cause)

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, stderrors.Is(err, New(ErrCodeStoreUnavailable, "other message", nil)))
	assert.False(t, stderrors.Is(err, New(ErrCodePaperNotFound, "other", nil)))
}

func TestError_WithDetail(t *testing.T) {
	err := NotFound("paper 42 not found").WithDetail("paper_id", "42")
	assert.Equal(t, "42", err.Details["paper_id"])
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1.0}

	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return New(ErrCodeEmbedderTimeout, "timeout", nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_AbortsOnNonRetryable(t *testing.T) {
	cfg := DefaultRetryConfig()

	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		return New(ErrCodeInvalidInput, "bad input", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, ErrCodeInvalidInput, GetCode(err))
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, DefaultRetryConfig(), func() error {
		return fmt.Errorf("should not matter")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("embedder", 2, time.Minute)
	failing := func() error { return fmt.Errorf("down") }

	require.Error(t, cb.Do(failing))
	require.Error(t, cb.Do(failing))
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Do(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker("embedder", 1, 10*time.Millisecond)

	require.Error(t, cb.Do(func() error { return fmt.Errorf("down") }))
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Do(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}
