package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	base := errors.New("always failing")
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		return base
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, base)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	base := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		calls++
		return NonRetryable(base)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, base)
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastConfig(10), func() error {
		calls++
		cancel()
		return errors.New("failing")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, calls, 2)
}

func TestDoRejectsNegativeConfig(t *testing.T) {
	cfg := fastConfig(3)
	cfg.InitialDelay = -time.Second
	require.Error(t, Do(context.Background(), cfg, func() error { return nil }))

	cfg = fastConfig(3)
	cfg.MaxDelay = time.Millisecond / 2
	require.Error(t, Do(context.Background(), cfg, func() error { return nil }))
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(3), func() (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("not yet")
		}
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", got)
}

func TestNonRetryable(t *testing.T) {
	base := errors.New("boom")
	wrapped := NonRetryable(base)

	assert.True(t, IsNonRetryable(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.False(t, IsNonRetryable(base))
	assert.Nil(t, NonRetryable(nil))
}
