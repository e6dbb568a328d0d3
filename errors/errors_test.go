package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapFormatsContext(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(base, "ProcessGroup", "AddProcessor", "duplicate check")

	assert.Equal(t, "ProcessGroup.AddProcessor: duplicate check failed: boom", err.Error())
	assert.True(t, errors.Is(err, base))
	assert.Nil(t, Wrap(nil, "c", "m", "a"))
}

func TestWrapClassifications(t *testing.T) {
	base := errors.New("boom")

	assert.True(t, IsTransient(WrapTransient(base, "c", "m", "a")))
	assert.True(t, IsInvalid(WrapInvalid(base, "c", "m", "a")))
	assert.True(t, IsFatal(WrapFatal(base, "c", "m", "a")))

	// classification survives further wrapping
	wrapped := fmt.Errorf("outer: %w", WrapInvalid(base, "c", "m", "a"))
	assert.True(t, IsInvalid(wrapped))
	assert.False(t, IsTransient(wrapped))

	assert.Nil(t, WrapTransient(nil, "c", "m", "a"))
	assert.Nil(t, WrapInvalid(nil, "c", "m", "a"))
	assert.Nil(t, WrapFatal(nil, "c", "m", "a"))
}

func TestClassifiedErrorUnwraps(t *testing.T) {
	err := WrapInvalid(ErrDuplicateID, "ProcessGroup", "AddProcessor", "duplicate check")

	assert.True(t, errors.Is(err, ErrDuplicateID))

	var ce *ClassifiedError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrorInvalid, ce.Class)
	assert.Equal(t, "ProcessGroup", ce.Component)
	assert.Equal(t, "AddProcessor", ce.Operation)
}

func TestSentinelClassification(t *testing.T) {
	assert.True(t, IsInvalid(ErrDuplicateID))
	assert.True(t, IsInvalid(ErrNotAMember))
	assert.True(t, IsInvalid(ErrIllegalTopology))
	assert.True(t, IsTransient(ErrRegistryUnavailable))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsFatal(ErrInvalidConfig))
}

func TestTransientMessagePatterns(t *testing.T) {
	assert.True(t, IsTransient(errors.New("dial tcp: connection refused")))
	assert.True(t, IsTransient(errors.New("request timeout")))
	assert.False(t, IsTransient(errors.New("no such flow")))
	assert.False(t, IsTransient(nil))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorInvalid, Classify(ErrDuplicateName))
	assert.Equal(t, ErrorFatal, Classify(WrapFatal(errors.New("corrupt"), "c", "m", "a")))
	assert.Equal(t, ErrorTransient, Classify(errors.New("service unavailable")))
	// unknown errors default to transient so callers may retry
	assert.Equal(t, ErrorTransient, Classify(errors.New("no such flow")))
}

func TestErrorClassString(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(42).String())
}

func TestShouldRetry(t *testing.T) {
	cfg := DefaultRetryConfig()
	transient := WrapTransient(errors.New("busy"), "c", "m", "a")

	assert.True(t, cfg.ShouldRetry(transient, 0))
	assert.False(t, cfg.ShouldRetry(transient, cfg.MaxRetries))
	assert.False(t, cfg.ShouldRetry(WrapInvalid(errors.New("bad input"), "c", "m", "a"), 0))
	assert.False(t, cfg.ShouldRetry(nil, 0))

	// a retryable-error allowlist narrows what is retried
	cfg.RetryableErrors = []error{ErrRegistryUnavailable}
	assert.True(t, cfg.ShouldRetry(fmt.Errorf("lookup: %w", ErrRegistryUnavailable), 0))
	assert.False(t, cfg.ShouldRetry(transient, 0))
}

func TestToRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig().ToRetryConfig()
	assert.Equal(t, DefaultRetryConfig().MaxRetries+1, cfg.MaxAttempts)
	assert.Equal(t, DefaultRetryConfig().BackoffFactor, cfg.Multiplier)
	assert.True(t, cfg.AddJitter)
}
