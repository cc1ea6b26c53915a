package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	groqBaseURL   = "https://api.groq.com/openai/v1"
	openAIBaseURL = "https://api.openai.com/v1"
)

// GroqClient calls an OpenAI-compatible Chat Completions API. It serves both
// Groq and OpenAI; only the base URL and key differ.
// See: https://console.groq.com/docs/api-reference
type GroqClient struct {
	http     *http.Client
	provider string
	apiKey   string
	baseURL  string
}

// NewGroqClient creates a Groq client. If opts.APIKey is empty it falls back to
// the GROQ_API_KEY env var.
func NewGroqClient(opts Options) *GroqClient {
	return newChatClient("groq", groqBaseURL, "GROQ_API_KEY", opts)
}

// NewOpenAIClient is NewGroqClient pointed at api.openai.com (OPENAI_API_KEY).
func NewOpenAIClient(opts Options) *GroqClient {
	return newChatClient("openai", openAIBaseURL, "OPENAI_API_KEY", opts)
}

func newChatClient(provider, baseURL, keyEnv string, opts Options) *GroqClient {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv(keyEnv)
	}
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 120 * time.Second}
	}
	return &GroqClient{
		http:     hc,
		provider: provider,
		apiKey:   opts.APIKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

func (g *GroqClient) Name() string { return g.provider }
func (g *GroqClient) Close() error { return nil }

type groqChatReq struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}
type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type groqChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
type groqErrorResp struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete sends prompt as a single user message.
func (g *GroqClient) Complete(ctx context.Context, prompt, model string) (string, error) {
	b, err := json.Marshal(groqChatReq{
		Model:    model,
		Messages: []groqMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", &BackendError{Provider: g.provider, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		be := &BackendError{
			Provider:   g.provider,
			StatusCode: resp.StatusCode,
			Message:    truncateBody(body),
			RetryAfter: retryAfter(resp.Header),
		}
		var parsed groqErrorResp
		if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
			be.Message = parsed.Error.Message
			// context length exceeded will not fix itself
			if parsed.Error.Code == "context_length_exceeded" {
				return "", NewPermanentError(be)
			}
		}
		return "", be
	}
	var out groqChatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &BackendError{Provider: g.provider, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", &BackendError{Provider: g.provider, StatusCode: resp.StatusCode, Err: ErrEmptyResponse}
	}
	return out.Choices[0].Message.Content, nil
}
