package llm

import (
	"context"
	"time"
)

// RetryPolicy retries rate-limit failures with a linearly growing wait.
type RetryPolicy struct {
	MaxAttempts int
	Step        time.Duration
	// Timeout bounds each attempt; a timed-out attempt is a plain failure.
	Timeout time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Do runs fn behind gate, retrying only when IsRetryable says so.
func (p RetryPolicy) Do(ctx context.Context, gate *Gate, fn func(ctx context.Context) (string, error)) (string, error) {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= p.attempts(); attempt++ {
		if err := gate.Wait(ctx); err != nil {
			return "", err
		}
		out, err := p.once(ctx, fn)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == p.attempts() {
			break
		}
		if err := sleep(ctx, p.Step*time.Duration(attempt)); err != nil {
			return "", lastErr
		}
	}
	return "", lastErr
}

func (p RetryPolicy) once(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	if p.Timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(attemptCtx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
