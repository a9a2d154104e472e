package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// TokenLimiter caps the number of operations per minute.
type TokenLimiter struct {
	limiter *rate.Limiter
}

// NewTokenLimiter creates a limiter allowing maxPerMinute operations per minute.
func NewTokenLimiter(maxPerMinute int) *TokenLimiter {
	if maxPerMinute <= 0 {
		maxPerMinute = 60
	}
	interval := time.Minute / time.Duration(maxPerMinute)
	return &TokenLimiter{
		limiter: rate.NewLimiter(rate.Every(interval), maxPerMinute),
	}
}

// Wait blocks until a token is available or the context is done.
func (t *TokenLimiter) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
