// Package retry wraps outbound calls in bounded exponential backoff with jitter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted wraps the last transient error once the attempt budget is spent.
var ErrExhausted = errors.New("retry budget exhausted")

// Classifier reports whether err is transient and worth another attempt.
type Classifier func(err error) bool

type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter is the randomization factor applied to each delay, 0 disables it.
	Jitter      float64
	IsTransient Classifier
	// Notify is called before each wait with the error that caused it.
	Notify func(err error, wait time.Duration)
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 100 * time.Millisecond
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		p.Jitter = backoff.DefaultRandomizationFactor
	}
	if p.IsTransient == nil {
		p.IsTransient = func(err error) bool { return errors.Is(err, context.DeadlineExceeded) }
	}
	return p
}

// Do runs op until it succeeds, returns a non-transient error, or the attempt
// budget runs out. Non-transient errors are returned as-is; an exhausted budget
// returns an error matching both ErrExhausted and the last transient error.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	p = p.withDefaults()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.BaseDelay
	eb.MaxInterval = p.MaxDelay
	eb.RandomizationFactor = p.Jitter
	eb.Multiplier = 2
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.MaxAttempts-1)), ctx)

	attempts := 0
	var lastErr error
	err := backoff.RetryNotify(func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !p.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, p.Notify)
	if err == nil {
		return nil
	}
	if lastErr == nil {
		return err
	}
	if !p.IsTransient(lastErr) {
		return lastErr
	}
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("%w after %d attempt(s): %w: %w", ErrExhausted, attempts, cerr, lastErr)
	}
	return fmt.Errorf("%w after %d attempt(s): %w", ErrExhausted, attempts, lastErr)
}
