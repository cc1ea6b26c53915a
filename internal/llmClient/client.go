package llmclient

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client is a text-completion backend. The model is chosen per call so one
// client can serve both the planning and the execution tier.
type Client interface {
	Name() string
	Complete(ctx context.Context, prompt, model string) (string, error)
	Close() error
}

var ErrEmptyResponse = errors.New("empty response from LLM")

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// BackendError is any non-success outcome of a backend call. StatusCode is 0
// when no HTTP response was received.
type BackendError struct {
	Provider   string
	StatusCode int
	Message    string
	// RetryAfter is the server's hint, when it sent one.
	RetryAfter time.Duration
	Err        error
}

func (e *BackendError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Transient reports whether retrying the same request may succeed: timeouts,
// transport failures, 408, 429 and 5xx.
func (e *BackendError) Transient() bool {
	if errors.Is(e.Err, context.Canceled) {
		return false
	}
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == 408, e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// IsTransient classifies err for retry purposes. Errors that are neither a
// BackendError nor a deadline are treated as permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var p *PermanentError
	if errors.As(err, &p) {
		return false
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Transient()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func truncateBody(b []byte) string {
	const max = 2048
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
