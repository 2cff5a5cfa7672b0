package analysis

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/icodes/icds/internal/llm"
)

// RetryPolicy decides how often, and for which errors, a model call is
// repeated.
type RetryPolicy struct {
	MaxAttempts int
	Retryable   func(error) bool
	// NewBackOff returns a fresh schedule per call; nil uses an exponential
	// back-off starting at one second.
	NewBackOff func() backoff.BackOff
}

// DefaultRetryPolicy makes three attempts in total and retries only
// transport failures.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Retryable:   llm.IsTransient,
	}
}

func (p RetryPolicy) backOff() backoff.BackOff {
	if p.NewBackOff != nil {
		return p.NewBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 10 * time.Second
	return b
}

// Do runs op until it succeeds, returns a non-retryable error, or the
// attempts run out. onRetry is called before each repeat.
func Do[T any](ctx context.Context, p RetryPolicy, op func() (T, error), onRetry func(error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = llm.IsTransient
	}

	wrapped := func() (T, error) {
		res, err := op()
		if err != nil && !retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}
	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(attempts)),
	}
	if onRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, _ time.Duration) { onRetry(err) }))
	}
	return backoff.Retry(ctx, wrapped, opts...)
}
