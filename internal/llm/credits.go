package llm

import (
	"context"
	"sync/atomic"
)

type creditsKey struct{}

// WithCredits returns a context carrying n pre-reserved limiter admissions.
// RateLimit spends a credit instead of waiting, so a caller that already
// acquired from the shared limiter is not charged twice.
func WithCredits(ctx context.Context, n int) context.Context {
	if n <= 0 {
		return ctx
	}
	c := new(atomic.Int32)
	c.Store(int32(n))
	return context.WithValue(ctx, creditsKey{}, c)
}

// TakeCredit consumes one credit from ctx, reporting whether one was available.
func TakeCredit(ctx context.Context) bool {
	c, _ := ctx.Value(creditsKey{}).(*atomic.Int32)
	if c == nil {
		return false
	}
	for {
		cur := c.Load()
		if cur <= 0 {
			return false
		}
		if c.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}
