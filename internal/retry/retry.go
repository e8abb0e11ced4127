// Package retry implements bounded retries with exponential backoff
// for the vision API calls. It is deliberately generic: callers decide
// what is retryable, the policy only decides how long to wait.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Policy controls attempt counts and backoff shape.
type Policy struct {
	// MaxAttempts is the total number of tries including the first.
	MaxAttempts int

	// BaseDelay is the wait after the first failed attempt. Each
	// further failure doubles it.
	BaseDelay time.Duration

	// MaxDelay caps the doubled delay.
	MaxDelay time.Duration

	// Jitter randomizes each delay by up to ±25% to avoid thundering
	// herds against rate-limited endpoints.
	Jitter bool
}

// DefaultPolicy matches the API client defaults: three tries, one
// second base, eight second cap.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    8 * time.Second,
	}
}

// Delay returns the wait before retrying after the given 1-based
// failed attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay << uint(attempt-1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		// ±25%
		quarter := int64(d) / 4
		d = time.Duration(int64(d) - quarter + rand.Int64N(2*quarter+1))
	}
	return d
}

// Do runs fn up to MaxAttempts times. fn reports whether its error is
// worth retrying; a nil error stops immediately. Waits respect ctx, and
// cancellation surfaces as the context's error.
func (p Policy) Do(ctx context.Context, fn func(attempt int) (retryable bool, err error)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		retryable, err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
		if attempt == attempts {
			break
		}
		if err := Sleep(ctx, p.Delay(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Sleep waits for d unless ctx ends first, in which case it returns
// the context's error.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
