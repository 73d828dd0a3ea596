package fetch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// DefaultTimeout bounds a single download attempt.
const DefaultTimeout = 30 * time.Minute

// DefaultRetryMax is the default maximum number of retries for transient errors.
const DefaultRetryMax = 3

// RetryPolicy defines retry behavior for transient transport errors.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy returns a sensible default retry policy.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries: DefaultRetryMax,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// WithTimeout wraps a context with a per-attempt timeout.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Backoff returns the wait before retry number attempt (zero based). The
// exponential step is capped at MaxDelay, and half of it is always waited so
// a struggling mirror is never hit again immediately. The other half is
// jittered to spread out concurrent mod downloads.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	step := p.BaseDelay
	for i := 0; i < attempt && step < p.MaxDelay; i++ {
		step *= 2
	}
	if step > p.MaxDelay {
		step = p.MaxDelay
	}
	if step <= 0 {
		return 0
	}
	half := step / 2
	return half + rand.N(step-half+1)
}

// RetryWithBackoff runs fn until it succeeds, returns an error shouldRetry
// rejects, or the policy's retries run out. Waits follow Backoff.
func RetryWithBackoff(ctx context.Context, policy *RetryPolicy, fn func() error, shouldRetry func(error) bool) error {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}

	for attempt := 0; ; attempt++ {
		err := fn()
		switch {
		case err == nil:
			return nil
		case !shouldRetry(err):
			return err
		case attempt >= policy.MaxRetries:
			return fmt.Errorf("max retries (%d) exceeded: %w", policy.MaxRetries, err)
		}

		timer := time.NewTimer(policy.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

var transientPatterns = []string{
	"too many requests",
	"service unavailable",
	"bad gateway",
	"gateway timeout",
	"connection reset",
	"connection refused",
	"broken pipe",
	"timeout",
	"tls handshake",
	"temporary failure",
	"no such host",
	"unexpected eof",
}

// IsTransientError checks if an error message looks like a network hiccup
// worth retrying.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
