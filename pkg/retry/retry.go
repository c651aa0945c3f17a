package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy bounds how often and how quickly a failing call is repeated.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter spreads each delay by up to this fraction in either direction.
	Jitter float64
	// Retryable classifies errors; nil treats every error as transient.
	Retryable func(error) bool
	Logger    *zap.Logger
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 100 * time.Millisecond
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = 10 * p.BaseDelay
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return p
}

// backoff doubles the base delay per completed attempt, capped at MaxDelay.
func (p Policy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt && delay < p.MaxDelay; i++ {
		delay *= 2
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter > 0 {
		spread := (rand.Float64()*2 - 1) * p.Jitter * float64(delay)
		delay += time.Duration(spread)
	}
	return delay
}

func (p Policy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return p.Retryable == nil || p.Retryable(err)
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// attempts are used up. The last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op()
		if err == nil {
			if attempt > 1 {
				p.Logger.Info("Operation succeeded after retry", zap.Int("attempt", attempt))
			}
			return result, nil
		}

		if attempt >= p.MaxAttempts || !p.retryable(err) {
			return zero, err
		}

		delay := p.backoff(attempt)
		p.Logger.Warn("Operation failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.MaxAttempts),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
