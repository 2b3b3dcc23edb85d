// Package retry runs an operation a bounded number of times with linearly
// increasing pauses between attempts.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy configures Do. The pause before attempt n+1 is Step × n.
type Policy struct {
	Attempts int
	Step     time.Duration
	// OnRetry, if set, is called after each failed attempt that will be retried.
	OnRetry func(err error, wait time.Duration)
}

// DefaultPolicy is used for cache reads and writes: three attempts, 100ms apart
// and growing.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Step: 100 * time.Millisecond}
}

// linearBackOff implements backoff.BackOff with a wait of step × attempt.
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.step * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// Permanent marks an error that must not be retried.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls op until it succeeds, returns a Permanent error, the attempts are
// exhausted or ctx is done. The last error is returned on failure.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var b backoff.BackOff = &linearBackOff{step: p.Step}
	b = backoff.WithMaxRetries(b, uint64(attempts-1))
	b = backoff.WithContext(b, ctx)

	var notify backoff.Notify
	if p.OnRetry != nil {
		notify = backoff.Notify(p.OnRetry)
	}

	return backoff.RetryNotifyWithData(func() (T, error) {
		return op(ctx)
	}, b, notify)
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
