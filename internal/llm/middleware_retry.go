package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	llmclient "github2file/internal/llmClient"
)

// maxBackoff caps a single wait between attempts.
const maxBackoff = time.Minute

// Retry retries transient failures up to maxAttempts calls in total, waiting
// baseDelay*2^i between attempts (or the server's Retry-After when longer).
// Permanent errors return immediately. If ctx is canceled it stops at once.
func Retry(maxAttempts int, baseDelay time.Duration, logger logrus.FieldLogger) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay, log: logger}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
	log  logrus.FieldLogger
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Complete(ctx context.Context, prompt, model string) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		out, err := r.next.Complete(ctx, prompt, model)
		if err == nil {
			return out, nil
		}
		last = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !llmclient.IsTransient(err) || i == r.max-1 {
			break
		}
		wait := backoff(r.base, i)
		var be *llmclient.BackendError
		if errors.As(err, &be) && be.RetryAfter > wait {
			wait = be.RetryAfter
		}
		r.log.WithFields(logrus.Fields{
			"phase":   PhaseFrom(ctx),
			"attempt": i + 1,
			"wait":    wait,
		}).WithError(err).Debug("llm: retrying transient failure")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return "", last
}

func backoff(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
