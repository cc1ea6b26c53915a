package llm

import (
	"context"
	"sync"
)

// FakeCall records one request seen by FakeClient.
type FakeCall struct {
	Phase  string
	Model  string
	Prompt string
}

// FakeClient returns deterministic responses per phase for offline runs and
// tests. Respond overrides the defaults when set.
type FakeClient struct {
	Respond func(ctx context.Context, phase, prompt, model string) (string, error)

	mu    sync.Mutex
	calls []FakeCall
}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "fake" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Complete(ctx context.Context, prompt, model string) (string, error) {
	phase := PhaseFrom(ctx)
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Phase: phase, Model: model, Prompt: prompt})
	f.mu.Unlock()

	if f.Respond != nil {
		return f.Respond(ctx, phase, prompt, model)
	}
	switch phase {
	case "plan":
		// empty plan: every file defaults to keep
		return `{"files": [], "groups": []}`, nil
	case "execute":
		return "Recreate this file from its dependents and the repository conventions.", nil
	default:
		return "{}", nil
	}
}

// Calls returns a copy of every recorded request.
func (f *FakeClient) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

// CallsFor counts requests tagged with phase.
func (f *FakeClient) CallsFor(phase string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Phase == phase {
			n++
		}
	}
	return n
}
