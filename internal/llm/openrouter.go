package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	openRouterBaseURL      = "https://openrouter.ai"
	openRouterDefaultModel = "anthropic/claude-3.5-sonnet"
	defaultRequestTimeout  = 90 * time.Second
	defaultMaxTokens       = 4096
	errorBodyLimit         = 4096
)

// OpenRouterClient speaks the OpenAI-compatible chat completions API
// exposed by OpenRouter.
type OpenRouterClient struct {
	key     string
	model   string
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

func NewOpenRouterClient(apiKey, model, baseURL string, timeout time.Duration, logger *slog.Logger) *OpenRouterClient {
	if model == "" {
		model = openRouterDefaultModel
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenRouterClient{
		key:     apiKey,
		model:   model,
		baseURL: normalizeBaseURL(baseURL, openRouterBaseURL),
		timeout: timeout,
		client:  &http.Client{Timeout: 5 * time.Minute},
		logger:  logger.With("provider", ProviderOpenRouter),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

func (c *OpenRouterClient) Complete(ctx context.Context, prompt, systemPrompt string, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	var messages []chatMessage
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/api/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("requesting completion", "model", model, "prompt_len", len(prompt))

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timeout after %s (model=%s): %w", c.timeout, model, context.DeadlineExceeded)
		}
		return "", &ModelInvocationError{Provider: ProviderOpenRouter, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return "", &ModelInvocationError{
			Provider:   ProviderOpenRouter,
			StatusCode: resp.StatusCode,
			Body:       truncate(redactSecrets(string(rb), c.key), 400),
		}
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", &ModelInvocationError{Provider: ProviderOpenRouter, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(raw.Choices) == 0 {
		return "", &ModelInvocationError{Provider: ProviderOpenRouter, Err: errors.New("no choices in response")}
	}

	content, err := messageContentToString(raw.Choices[0].Message.Content)
	if err != nil {
		return "", &ModelInvocationError{Provider: ProviderOpenRouter, Err: err}
	}
	return content, nil
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("unexpected content type %T", v)
	}
}
