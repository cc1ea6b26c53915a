package llmclient

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/JexSrs/go-ollama"
)

const defaultOllamaHost = "http://localhost:11434"

// OllamaClient talks to a local Ollama server through its generate endpoint.
type OllamaClient struct {
	cli  *ollama.Ollama
	host string
}

// NewOllamaClient uses opts.BaseURL, then OLLAMA_HOST, then localhost.
func NewOllamaClient(opts Options) (*OllamaClient, error) {
	host := opts.BaseURL
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultOllamaHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", host, err)
	}
	return &OllamaClient{cli: ollama.New(*u), host: host}, nil
}

func (o *OllamaClient) Name() string { return "ollama" }
func (o *OllamaClient) Close() error { return nil }

type ollamaResult struct {
	text string
	err  error
}

// Complete runs one non-streaming generation. The library call takes no
// context, so cancellation abandons the call and lets it finish in the background.
func (o *OllamaClient) Complete(ctx context.Context, prompt, model string) (string, error) {
	done := make(chan ollamaResult, 1)
	go func() {
		res, err := o.cli.Generate(
			o.cli.Generate.WithModel(model),
			o.cli.Generate.WithPrompt(prompt),
		)
		if err != nil {
			done <- ollamaResult{err: err}
			return
		}
		if !res.Done {
			done <- ollamaResult{err: fmt.Errorf("generation did not complete")}
			return
		}
		done <- ollamaResult{text: res.Response}
	}()

	select {
	case <-ctx.Done():
		return "", &BackendError{Provider: "ollama", Err: ctx.Err()}
	case r := <-done:
		if r.err != nil {
			return "", &BackendError{Provider: "ollama", Message: r.err.Error(), Err: r.err}
		}
		if strings.TrimSpace(r.text) == "" {
			return "", &BackendError{Provider: "ollama", StatusCode: 200, Err: ErrEmptyResponse}
		}
		return r.text, nil
	}
}
