package llmclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// retryAfter reads the provider's back-off hint. OpenAI-compatible servers send
// retry-after in seconds and x-ratelimit-reset-* as Go-style durations.
func retryAfter(h http.Header) time.Duration {
	if v := strings.TrimSpace(h.Get("retry-after")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	readInt := func(key string) (int, bool) {
		n, err := strconv.Atoi(strings.TrimSpace(h.Get(key)))
		return n, err == nil
	}
	readDur := func(key string) time.Duration {
		d, err := time.ParseDuration(strings.TrimSpace(h.Get(key)))
		if err != nil {
			return 0
		}
		return d
	}
	if n, ok := readInt("x-ratelimit-remaining-tokens"); ok && n == 0 {
		if d := readDur("x-ratelimit-reset-tokens"); d > 0 {
			return d
		}
	}
	if n, ok := readInt("x-ratelimit-remaining-requests"); ok && n == 0 {
		return readDur("x-ratelimit-reset-requests")
	}
	return 0
}
