package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	llmclient "github2file/internal/llmClient"
)

// -------- Rate Limiting --------

// RateLimit makes every request wait for l unless ctx carries a credit (see
// WithCredits). The limiter is shared, not owned: stopping it is the caller's job.
func RateLimit(l Limiter) Middleware {
	return func(next Client) Client {
		return &rateLimited{next: next, rl: l}
	}
}

type rateLimited struct {
	next Client
	rl   Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) Complete(ctx context.Context, prompt, model string) (string, error) {
	if c.rl != nil && !TakeCredit(ctx) {
		if err := c.rl.Acquire(ctx); err != nil {
			return "", err
		}
	}
	return c.next.Complete(ctx, prompt, model)
}

// -------- Per-request timeout --------

// Timeout bounds each request. Expiry surfaces as a transient BackendError so
// Retry can try again; cancellation of the parent context does not.
func Timeout(d time.Duration) Middleware {
	return func(next Client) Client {
		if d <= 0 {
			return next
		}
		return &timed{next: next, d: d}
	}
}

type timed struct {
	next Client
	d    time.Duration
}

func (t *timed) Name() string { return t.next.Name() }
func (t *timed) Close() error { return t.next.Close() }
func (t *timed) Complete(ctx context.Context, prompt, model string) (string, error) {
	rctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	out, err := t.next.Complete(rctx, prompt, model)
	if err != nil && ctx.Err() == nil && rctx.Err() == context.DeadlineExceeded {
		return "", &llmclient.BackendError{
			Provider: t.next.Name(),
			Message:  fmt.Sprintf("request timed out after %s", t.d),
			Err:      context.DeadlineExceeded,
		}
	}
	return out, err
}

// -------- Logging --------

// WithLogging logs model, phase, prompt size, latency and errors at debug
// level. The prompt itself is logged at trace level. nil uses the standard logger.
func WithLogging(logger logrus.FieldLogger) Middleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next Client) Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Client
	log  logrus.FieldLogger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Complete(ctx context.Context, prompt, model string) (string, error) {
	entry := l.log.WithFields(logrus.Fields{
		"backend": l.next.Name(),
		"model":   model,
		"phase":   PhaseFrom(ctx),
	})
	entry.WithField("bytes", len(prompt)).Debug("llm request")
	entry.Trace(prompt)

	start := time.Now()
	out, err := l.next.Complete(ctx, prompt, model)
	entry = entry.WithField("latency", time.Since(start).Round(time.Millisecond))
	if err != nil {
		entry.WithError(err).Debug("llm error")
		return out, err
	}
	entry.WithField("bytes", len(out)).Debug("llm response")
	return out, nil
}
