// Package llm layers cross-cutting behaviour (rate limiting, retries,
// per-request timeouts, logging) over an llmclient.Client.
package llm

import (
	"context"

	llmclient "github2file/internal/llmClient"
)

type Client = llmclient.Client

// Middleware decorates a Client to inject cross-cutting concerns.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// NewClient builds a backend by provider name. "fake" returns a FakeClient for
// offline runs; everything else goes through llmclient.New.
func NewClient(ctx context.Context, provider string, opts llmclient.Options) (Client, error) {
	if provider == "fake" {
		return NewFakeClient(), nil
	}
	return llmclient.New(ctx, provider, opts)
}

type ctxKeyPhase struct{}

// WithPhase tags ctx with the pipeline phase ("plan", "execute") for logs and fakes.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyPhase{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
