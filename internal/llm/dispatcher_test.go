package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aichat/internal/config"
)

func TestRouteModel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		model string
		want  Provider
	}{
		{"deepseek/deepseek-v3-free", ProviderDeepSeek},
		{"deepseek/deepseek-chat", ProviderDeepSeek},
		{"gemini-2.0-flash-exp", ProviderGemini},
		{"gpt-4o", ProviderGemini},
		{"", ProviderGemini},
	}

	for _, tc := range cases {
		if got := RouteModel(tc.model); got != tc.want {
			t.Fatalf("RouteModel(%q) = %v, want %v", tc.model, got, tc.want)
		}
	}
}

func TestDeepSeekCompleteSendsOpenRouterRequest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %q", got)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		rawBody := string(body)
		if !strings.Contains(rawBody, `"model":"deepseek/deepseek-chat"`) {
			t.Fatalf("request body missing model: %s", rawBody)
		}
		if !strings.Contains(rawBody, `"max_tokens":2000`) {
			t.Fatalf("request body missing max_tokens: %s", rawBody)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi there"}}]}`))
	}))
	defer server.Close()

	client := NewDeepSeekClient(config.Config{
		OpenRouterAPIKey:  "test-key",
		OpenRouterBaseURL: server.URL,
	}, server.Client())

	content, err := client.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if content != "hi there" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestGeminiCompleteParsesCandidates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "gemini-key" {
			t.Fatalf("unexpected key query: %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"gemini says hi"}]}}]}`))
	}))
	defer server.Close()

	client := NewGeminiClient(config.Config{
		GeminiAPIKey:  "gemini-key",
		GeminiBaseURL: server.URL,
	}, server.Client())

	content, err := client.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if content != "gemini says hi" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestCompleteParsesUpstreamErrorEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded"}}`))
	}))
	defer server.Close()

	client := NewDeepSeekClient(config.Config{
		OpenRouterAPIKey:  "test-key",
		OpenRouterBaseURL: server.URL,
	}, server.Client())

	_, err := client.Complete(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Fatalf("expected envelope message in error, got: %v", err)
	}
}

func TestCompleteFallsBackToStatusTextWithoutEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := NewGeminiClient(config.Config{
		GeminiAPIKey:  "gemini-key",
		GeminiBaseURL: server.URL,
	}, server.Client())

	_, err := client.Complete(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if !strings.Contains(err.Error(), "502 Bad Gateway") {
		t.Fatalf("expected status text in error, got: %v", err)
	}
}

func TestDispatchFallsBackToGeminiWhenDeepSeekKeyMissing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"fallback answer"}]}}]}`))
	}))
	defer server.Close()

	dispatcher := NewDispatcher(config.Config{
		GeminiAPIKey:  "gemini-key",
		GeminiBaseURL: server.URL,
	}, server.Client())

	completion, err := dispatcher.Dispatch(context.Background(), "deepseek/deepseek-v3-free", "hi")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if completion.Model != GeminiModelID {
		t.Fatalf("expected fallback model %q, got %q", GeminiModelID, completion.Model)
	}
	if completion.Content != "fallback answer" {
		t.Fatalf("unexpected content: %q", completion.Content)
	}
}

func TestDispatchFallsBackToDeepSeekWhenGeminiFails(t *testing.T) {
	t.Parallel()

	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer gemini.Close()

	deepseek := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"deepseek fallback"}}]}`))
	}))
	defer deepseek.Close()

	dispatcher := NewDispatcher(config.Config{
		GeminiAPIKey:      "gemini-key",
		GeminiBaseURL:     gemini.URL,
		OpenRouterAPIKey:  "or-key",
		OpenRouterBaseURL: deepseek.URL,
	}, nil)

	completion, err := dispatcher.Dispatch(context.Background(), "gemini-2.0-flash-exp", "hi")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if completion.Model != DeepSeekModelID {
		t.Fatalf("expected fallback model %q, got %q", DeepSeekModelID, completion.Model)
	}
	if completion.Content != "deepseek fallback" {
		t.Fatalf("unexpected content: %q", completion.Content)
	}
}

func TestDispatchKeepsRequestedModelOnPrimarySuccess(t *testing.T) {
	t.Parallel()

	deepseek := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"primary answer"}}]}`))
	}))
	defer deepseek.Close()

	dispatcher := NewDispatcher(config.Config{
		OpenRouterAPIKey:  "or-key",
		OpenRouterBaseURL: deepseek.URL,
	}, deepseek.Client())

	completion, err := dispatcher.Dispatch(context.Background(), "deepseek/deepseek-v3-free", "hi")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if completion.Model != "deepseek/deepseek-v3-free" {
		t.Fatalf("expected requested model to be echoed, got %q", completion.Model)
	}
}

func TestDispatchTreatsMalformedSuccessAsFailure(t *testing.T) {
	t.Parallel()

	deepseek := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"unexpected":"shape"}`))
	}))
	defer deepseek.Close()

	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"rescued"}]}}]}`))
	}))
	defer gemini.Close()

	dispatcher := NewDispatcher(config.Config{
		OpenRouterAPIKey:  "or-key",
		OpenRouterBaseURL: deepseek.URL,
		GeminiAPIKey:      "gemini-key",
		GeminiBaseURL:     gemini.URL,
	}, nil)

	completion, err := dispatcher.Dispatch(context.Background(), "deepseek/deepseek-chat", "hi")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if completion.Content != "rescued" {
		t.Fatalf("expected fallback content, got %q", completion.Content)
	}
}

func TestDispatchFailsWhenNoProviderConfigured(t *testing.T) {
	t.Parallel()

	dispatcher := NewDispatcher(config.Config{}, nil)

	_, err := dispatcher.Dispatch(context.Background(), "deepseek/deepseek-v3-free", "hi")
	if !errors.Is(err, ErrAllProvidersUnavailable) {
		t.Fatalf("expected ErrAllProvidersUnavailable, got %v", err)
	}
}

func TestDispatchFailsWhenBothProvidersError(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	dispatcher := NewDispatcher(config.Config{
		OpenRouterAPIKey:  "or-key",
		OpenRouterBaseURL: failing.URL,
		GeminiAPIKey:      "gemini-key",
		GeminiBaseURL:     failing.URL,
	}, failing.Client())

	_, err := dispatcher.Dispatch(context.Background(), "gemini-2.0-flash-exp", "hi")
	if !errors.Is(err, ErrAllProvidersUnavailable) {
		t.Fatalf("expected ErrAllProvidersUnavailable, got %v", err)
	}
}
