package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestOpenRouterClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"content":"{\"removed_segments\":[]}"}}]}`)
	}))
	defer srv.Close()

	c := NewOpenRouterClient("sk-test", "", srv.URL+"/", time.Second, nil)
	out, err := c.Complete(context.Background(), "find cuts", "you are an editor", Options{MaxTokens: 100, Temperature: 0.3})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != `{"removed_segments":[]}` {
		t.Errorf("Complete() = %q", out)
	}
	if got.Model != openRouterDefaultModel || got.MaxTokens != 100 || got.Temperature != 0.3 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "find cuts" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestOpenRouterClient_ContentParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[{"message":{"content":[{"type":"text","text":"{\"a\":"},{"type":"text","text":"1}"}]}}]}`)
	}))
	defer srv.Close()

	out, err := NewOpenRouterClient("k", "m", srv.URL, time.Second, nil).Complete(context.Background(), "p", "", Options{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != `{"a":1}` {
		t.Errorf("Complete() = %q", out)
	}
}

func TestOpenRouterClient_ErrorStatusRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `upstream rejected key sk-secret-123`)
	}))
	defer srv.Close()

	_, err := NewOpenRouterClient("sk-secret-123", "", srv.URL, time.Second, nil).Complete(context.Background(), "p", "", Options{})
	var mie *ModelInvocationError
	if !errors.As(err, &mie) {
		t.Fatalf("error = %v, want *ModelInvocationError", err)
	}
	if mie.StatusCode != http.StatusBadGateway || !mie.IsRetryable() {
		t.Errorf("mie = %+v, retryable=%v", mie, mie.IsRetryable())
	}
	if strings.Contains(mie.Body, "sk-secret-123") {
		t.Errorf("body leaks key: %q", mie.Body)
	}
}

func TestOpenRouterClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	_, err := NewOpenRouterClient("k", "", srv.URL, time.Second, nil).Complete(context.Background(), "p", "", Options{})
	var mie *ModelInvocationError
	if !errors.As(err, &mie) || mie.IsRetryable() {
		t.Fatalf("error = %v, want non-retryable ModelInvocationError", err)
	}
}

func TestAnthropicClient_Complete(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "ak" || r.Header.Get("anthropic-version") != anthropicAPIVersion {
			t.Errorf("headers = %v", r.Header)
		}
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"content":[{"type":"text","text":"hello "},{"type":"tool_use"},{"type":"text","text":"world"}],"stop_reason":"end_turn"}`)
	}))
	defer srv.Close()

	out, err := NewAnthropicClient("ak", "", srv.URL, time.Second, nil).Complete(context.Background(), "p", "sys", Options{Model: "claude-x"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "hello world" {
		t.Errorf("Complete() = %q", out)
	}
	if got.Model != "claude-x" || got.System != "sys" || got.MaxTokens != defaultMaxTokens {
		t.Errorf("request = %+v", got)
	}
}

func TestAnthropicClient_ClientErrorNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"bad"}`)
	}))
	defer srv.Close()

	_, err := NewAnthropicClient("ak", "", srv.URL, time.Second, nil).Complete(context.Background(), "p", "", Options{})
	var mie *ModelInvocationError
	if !errors.As(err, &mie) {
		t.Fatalf("error = %v", err)
	}
	if mie.IsRetryable() {
		t.Error("400 should not be retryable")
	}
}

func TestModelInvocationError_IsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *ModelInvocationError
		want bool
	}{
		{"rate limited", &ModelInvocationError{StatusCode: 429}, true},
		{"server error", &ModelInvocationError{StatusCode: 503}, true},
		{"unauthorized", &ModelInvocationError{StatusCode: 401}, false},
		{"deadline", &ModelInvocationError{Err: context.DeadlineExceeded}, true},
		{"decode", &ModelInvocationError{Err: errors.New("decode")}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.IsRetryable(); got != tc.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tc.want)
			}
		})
	}
}

type scriptedCompleter struct {
	calls atomic.Int32
	errs  []error
}

func (s *scriptedCompleter) Complete(context.Context, string, string, Options) (string, error) {
	i := int(s.calls.Add(1)) - 1
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return "ok", nil
}

func TestWithRetry(t *testing.T) {
	retryable := &ModelInvocationError{StatusCode: 503}
	permanent := &ModelInvocationError{StatusCode: 401}

	t.Run("recovers", func(t *testing.T) {
		s := &scriptedCompleter{errs: []error{retryable, retryable}}
		out, err := WithRetry(s, 3, time.Millisecond).Complete(context.Background(), "p", "", Options{})
		if err != nil || out != "ok" {
			t.Fatalf("Complete() = %q, %v", out, err)
		}
		if s.calls.Load() != 3 {
			t.Errorf("calls = %d, want 3", s.calls.Load())
		}
	})

	t.Run("permanent stops", func(t *testing.T) {
		s := &scriptedCompleter{errs: []error{permanent}}
		if _, err := WithRetry(s, 3, time.Millisecond).Complete(context.Background(), "p", "", Options{}); err == nil {
			t.Fatal("expected error")
		}
		if s.calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", s.calls.Load())
		}
	})

	t.Run("gives up", func(t *testing.T) {
		s := &scriptedCompleter{errs: []error{retryable, retryable, retryable}}
		if _, err := WithRetry(s, 2, time.Millisecond).Complete(context.Background(), "p", "", Options{}); !errors.Is(err, retryable) {
			t.Fatalf("error = %v", err)
		}
		if s.calls.Load() != 2 {
			t.Errorf("calls = %d, want 2", s.calls.Load())
		}
	})
}

func TestNew(t *testing.T) {
	if _, err := New(Config{Provider: "openrouter"}, nil); err == nil {
		t.Error("expected error without api key")
	}
	if _, err := New(Config{Provider: "bogus", APIKey: "k"}, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
	c, err := New(Config{Provider: "Anthropic", APIKey: "k"}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := c.(*AnthropicClient); !ok {
		t.Errorf("New(anthropic) = %T", c)
	}
}

func TestRedactSecrets(t *testing.T) {
	in := "Authorization: Bearer abc.def api_key=zzz raw-key"
	out := redactSecrets(in, "raw-key")
	for _, leak := range []string{"abc.def", "zzz", "raw-key"} {
		if strings.Contains(out, leak) {
			t.Errorf("redactSecrets leaked %q: %q", leak, out)
		}
	}
}
