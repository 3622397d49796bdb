package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate enforces a minimum interval between calls, shared by every chat.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate returns nil for a non-positive interval, which disables throttling.
func NewGate(interval time.Duration) *Gate {
	if interval <= 0 {
		return nil
	}
	return &Gate{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call may be dispatched.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}
