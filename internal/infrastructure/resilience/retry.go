package resilience

import (
	"context"
	"math/rand"
	"time"
)

const (
	// DefaultMaxAttempts is the total number of tries including the first
	DefaultMaxAttempts = 4
	// DefaultBaseDelay is the backoff before the first retry
	DefaultBaseDelay = 1000 * time.Millisecond
	// DefaultMaxDelay caps the computed backoff
	DefaultMaxDelay = 30 * time.Second
	// DefaultJitterFraction is the symmetric jitter applied to each delay
	DefaultJitterFraction = 0.2
)

// RetryPolicy controls retry behavior for outbound connector calls
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	JitterFraction float64
}

// DefaultRetryPolicy returns the standard connector retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    DefaultMaxAttempts,
		BaseDelay:      DefaultBaseDelay,
		MaxDelay:       DefaultMaxDelay,
		JitterFraction: DefaultJitterFraction,
	}
}

// ShouldRetry reports whether another attempt should be made after the given
// error. attempt is 1-based and counts the try that just failed.
func (p RetryPolicy) ShouldRetry(err *ConnectorError, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.MaxAttempts {
		return false
	}
	return err.Retryable()
}

// Delay computes the backoff before retry number attempt (1-based, so
// attempt 1 is the delay before the second try). A vendor retry hint
// overrides the computed backoff exactly.
func (p RetryPolicy) Delay(err *ConnectorError, attempt int) time.Duration {
	if err != nil && err.RetryAfter > 0 {
		return err.RetryAfter
	}

	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.JitterFraction > 0 {
		jitter := p.JitterFraction * float64(delay)
		delay += time.Duration((rand.Float64()*2 - 1) * jitter)
	}
	// The cap is a hard bound; jitter never pushes past it
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Execute runs fn up to MaxAttempts times, sleeping the computed backoff
// between attempts. It returns the classified error from the last attempt.
func (p RetryPolicy) Execute(ctx context.Context, fn func(ctx context.Context) *ConnectorError) *ConnectorError {
	var last *ConnectorError
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		last = fn(ctx)
		if last == nil {
			return nil
		}
		if !p.ShouldRetry(last, attempt) {
			return last
		}

		select {
		case <-ctx.Done():
			return Classify(ctx.Err(), 0)
		case <-time.After(p.Delay(last, attempt)):
		}
	}
	return last
}
