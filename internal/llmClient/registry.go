package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Options configures a backend. Empty fields fall back to provider defaults
// and environment variables.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

type Factory func(ctx context.Context, opts Options) (Client, error)

var factories = map[string]Factory{
	"gemini": func(ctx context.Context, opts Options) (Client, error) { return NewGeminiClient(ctx, opts) },
	"groq":   func(_ context.Context, opts Options) (Client, error) { return NewGroqClient(opts), nil },
	"openai": func(_ context.Context, opts Options) (Client, error) { return NewOpenAIClient(opts), nil },
	"ollama": func(_ context.Context, opts Options) (Client, error) { return NewOllamaClient(opts) },
}

// Providers lists the names New accepts.
func Providers() []string {
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New builds the backend registered under provider.
func New(ctx context.Context, provider string, opts Options) (Client, error) {
	f, ok := factories[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q (want one of %s)", provider, strings.Join(Providers(), ", "))
	}
	return f(ctx, opts)
}
