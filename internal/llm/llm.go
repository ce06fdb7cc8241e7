// Package llm is the text-completion boundary: prompt in, generated text out.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"time"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
)

// Options are per-call generation settings. Zero values fall back to the
// client's defaults.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Completer generates text for a prompt. Failures are *ModelInvocationError.
type Completer interface {
	Complete(ctx context.Context, prompt, systemPrompt string, opts Options) (string, error)
}

// ModelInvocationError is returned when a completion call fails at the
// transport level, with a non-2xx status, or with an empty response.
type ModelInvocationError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ModelInvocationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s completion failed: HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *ModelInvocationError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true for rate limiting, server errors (5xx) and
// network timeouts. Other client errors are permanent.
func (e *ModelInvocationError) IsRetryable() bool {
	if e.StatusCode == 429 || e.StatusCode >= 500 {
		return true
	}
	if e.StatusCode != 0 {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Config selects and configures a provider client.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// New builds the client for cfg.Provider.
func New(cfg Config, logger *slog.Logger) (Completer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("llm api key is required")
	}
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenRouter, "":
		return NewOpenRouterClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout, logger), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// Retrying wraps a Completer and repeats calls that fail with a retryable
// ModelInvocationError, doubling the wait each time.
type Retrying struct {
	next     Completer
	attempts int
	backoff  time.Duration
}

func WithRetry(next Completer, attempts int, backoff time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{next: next, attempts: attempts, backoff: backoff}
}

func (r *Retrying) Complete(ctx context.Context, prompt, systemPrompt string, opts Options) (string, error) {
	wait := r.backoff
	var err error
	for i := 0; i < r.attempts; i++ {
		var out string
		out, err = r.next.Complete(ctx, prompt, systemPrompt, opts)
		if err == nil {
			return out, nil
		}
		var mie *ModelInvocationError
		if !errors.As(err, &mie) || !mie.IsRetryable() || i == r.attempts-1 {
			return "", err
		}
		select {
		case <-ctx.Done():
			return "", err
		case <-time.After(wait):
		}
		wait *= 2
	}
	return "", err
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func normalizeBaseURL(baseURL, fallback string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = fallback
	}
	return strings.TrimRight(baseURL, "/")
}
