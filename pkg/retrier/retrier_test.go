package retrier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	r := New()
	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, attempts)
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	r := New(WithMaxRetries(3), WithInitialInterval(1*time.Millisecond))
	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestDoExhaustsRetries(t *testing.T) {
	r := New(WithMaxRetries(2), WithInitialInterval(1*time.Millisecond))
	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("persistent")
	})
	require.Error(t, err)
	require.Equal(t, 3, attempts) // 1 initial + 2 retries
}

func TestDoStopsOnCancel(t *testing.T) {
	r := New(WithMaxRetries(5), WithInitialInterval(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := r.Do(ctx, func(ctx context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 2, attempts)
}

func TestDoWithData(t *testing.T) {
	r := New(WithMaxRetries(1), WithInitialInterval(1*time.Millisecond))

	val, err := DoWithData(r, context.Background(), func(ctx context.Context) (uint64, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, uint64(42), val)

	_, err = DoWithData(r, context.Background(), func(ctx context.Context) (uint64, error) {
		return 0, errors.New("persistent")
	})
	require.Error(t, err)
}
