package client

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Backoff defaults for the home listing.
const (
	DefaultRetryBaseDelay = 2 * time.Second
	DefaultMaxAttempts    = 3
)

// Backoff retries transient failures with a linear delay of attempt*base.
// It is sequential and keeps its attempt counter across calls until Reset.
type Backoff struct {
	base        time.Duration
	maxAttempts int
	attempt     int
	exhausted   bool
	lastErr     error
	logger      *zap.Logger
	wait        func(ctx context.Context, d time.Duration) error
}

// NewBackoff returns a backoff with the default attempt limit.
func NewBackoff(base time.Duration, logger *zap.Logger) *Backoff {
	if base <= 0 {
		base = DefaultRetryBaseDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backoff{base: base, maxAttempts: DefaultMaxAttempts, attempt: 1, logger: logger, wait: sleepCtx}
}

// Attempt is the 1-based attempt the next call will make.
func (b *Backoff) Attempt() int { return b.attempt }

// Exhausted reports that automatic retries stopped after the last transient failure.
func (b *Backoff) Exhausted() bool { return b.exhausted }

// Delay returns the wait scheduled after a failure at attempt.
func (b *Backoff) Delay(attempt int) time.Duration {
	return time.Duration(attempt) * b.base
}

// Reset starts over from the first attempt, as a manual retry does.
func (b *Backoff) Reset() {
	b.attempt = 1
	b.exhausted = false
	b.lastErr = nil
}

// Do runs fn, retrying transient failures until it succeeds, fails permanently or
// the attempt limit is reached. Once exhausted Do makes no further call until Reset.
func (b *Backoff) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if b.exhausted {
		return b.lastErr
	}
	for {
		err := fn(ctx)
		if err == nil {
			b.Reset()
			return nil
		}
		if !IsTransient(err) {
			b.Reset()
			return err
		}
		if b.attempt >= b.maxAttempts {
			b.exhausted = true
			b.lastErr = err
			b.logger.Debug("retries exhausted", zap.Int("attempts", b.attempt), zap.Error(err))
			return err
		}
		delay := b.Delay(b.attempt)
		b.logger.Debug("transient failure, retrying", zap.Int("attempt", b.attempt), zap.Duration("delay", delay), zap.Error(err))
		if werr := b.wait(ctx, delay); werr != nil {
			b.Reset()
			return transportError(werr)
		}
		b.attempt++
	}
}

// Retry is a manual retry: it resets the counter and runs Do again.
func (b *Backoff) Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	b.Reset()
	return b.Do(ctx, fn)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
