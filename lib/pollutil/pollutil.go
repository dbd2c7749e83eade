// Package pollutil drives remote jobs that must be queried repeatedly
// until they reach a terminal state (file conversions, grammar scoring).
//
// a poll is bounded three ways: exponential backoff between attempts,
// a cap on total elapsed time, and context cancellation. an error from
// the check function is treated as transient unless wrapped with
// Permanent, in which case polling stops immediately.
package pollutil

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrExhausted = errors.New("polling budget exhausted before the job finished")

var errPending = errors.New("job still pending")

type Options struct {
	// defaults to 1s
	InitialInterval time.Duration
	// defaults to 10s
	MaxInterval time.Duration
	// defaults to 2m
	MaxElapsed time.Duration
}

// reports the job's result and whether it reached a terminal state.
type CheckFunc[T any] func(ctx context.Context) (T, bool, error)

// marks an error as terminal so polling stops instead of retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func Poll[T any](ctx context.Context, opts Options, check CheckFunc[T]) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = time.Second * 10
	b.MaxElapsedTime = time.Minute * 2
	if opts.InitialInterval > 0 {
		b.InitialInterval = opts.InitialInterval
	}
	if opts.MaxInterval > 0 {
		b.MaxInterval = opts.MaxInterval
	}
	if opts.MaxElapsed > 0 {
		b.MaxElapsedTime = opts.MaxElapsed
	}

	out, err := backoff.RetryWithData(func() (T, error) {
		result, done, err := check(ctx)
		if err != nil {
			return result, err
		}
		if !done {
			return result, errPending
		}
		return result, nil
	}, backoff.WithContext(b, ctx))

	if errors.Is(err, errPending) {
		return out, ErrExhausted
	}
	return out, err
}
