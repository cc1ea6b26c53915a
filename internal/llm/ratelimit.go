package llm

import (
	"context"
	"sync"
	"time"
)

// Limiter admits requests at a fixed rate. It is safe for concurrent use and is
// the only place request budget is accounted; every caller goes through Acquire.
type Limiter interface {
	// Acquire blocks until a request may be sent or ctx is done.
	Acquire(ctx context.Context) error
	Stop()
}

// rpsLimiter is a lightweight token-bucket limiter that throttles to at most
// R requests per second with an optional burst capacity.
type rpsLimiter struct {
	tokens chan struct{}
	stopCh chan struct{}
	once   sync.Once
}

// newRPSLimiter creates a limiter that allows up to rps events per second
// with a burst capacity of 'burst'. If rps <= 0, the limiter is disabled
// (Acquire becomes a no-op).
func newRPSLimiter(rps float64, burst int) *rpsLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	l := &rpsLimiter{
		tokens: make(chan struct{}, burst),
		stopCh: make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		l.tokens <- struct{}{}
	}

	period := time.Duration(float64(time.Second) / rps)
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case l.tokens <- struct{}{}:
				default:
					// bucket full; drop token
				}
			case <-l.stopCh:
				return
			}
		}
	}()

	return l
}

func (l *rpsLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		return context.Canceled
	case <-l.tokens:
		return nil
	}
}

// Stop terminates the refill goroutine. Pending and later Acquire calls fail.
func (l *rpsLimiter) Stop() {
	if l == nil {
		return
	}
	l.once.Do(func() { close(l.stopCh) })
}

// NewLimiter returns a token bucket refilled at rps with the given burst.
// If rps <= 0 the limiter admits everything.
func NewLimiter(rps float64, burst int) Limiter {
	return newRPSLimiter(rps, burst)
}

// PerMinute is the requests-per-minute budget as a limiter with burst 1, so
// consecutive requests are spaced 60s/rpm apart.
func PerMinute(rpm int) Limiter {
	return newRPSLimiter(float64(rpm)/60.0, 1)
}
