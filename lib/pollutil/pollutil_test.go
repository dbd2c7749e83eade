package pollutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fastOpts = Options{
	InitialInterval: time.Millisecond,
	MaxInterval:     time.Millisecond * 5,
	MaxElapsed:      time.Second * 5,
}

func TestPollSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	result, err := Poll(context.Background(), fastOpts, func(ctx context.Context) (string, bool, error) {
		attempts++
		if attempts < 3 {
			return "", false, nil
		}
		return "done", true, nil
	})
	require.NoError(t, err)
	require.Equal(t, "done", result)
	require.Equal(t, 3, attempts)
}

func TestPollTransientErrorsRetry(t *testing.T) {
	attempts := 0
	result, err := Poll(context.Background(), fastOpts, func(ctx context.Context) (int, bool, error) {
		attempts++
		if attempts == 1 {
			return 0, false, errors.New("connection reset")
		}
		return 42, true, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, result)
	require.Equal(t, 2, attempts)
}

func TestPollPermanentErrorStops(t *testing.T) {
	terminal := errors.New("the job blew up")
	attempts := 0
	_, err := Poll(context.Background(), fastOpts, func(ctx context.Context) (string, bool, error) {
		attempts++
		return "", false, Permanent(terminal)
	})
	require.ErrorIs(t, err, terminal)
	require.Equal(t, 1, attempts)
}

func TestPollBudgetExhausted(t *testing.T) {
	opts := Options{
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond * 2,
		MaxElapsed:      time.Millisecond * 30,
	}
	_, err := Poll(context.Background(), opts, func(ctx context.Context) (string, bool, error) {
		return "", false, nil
	})
	require.ErrorIs(t, err, ErrExhausted)
}

func TestPollContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(time.Millisecond * 10)
		cancel()
	}()

	_, err := Poll(ctx, Options{
		InitialInterval: time.Millisecond * 100,
		MaxElapsed:      time.Minute,
	}, func(ctx context.Context) (string, bool, error) {
		return "", false, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
