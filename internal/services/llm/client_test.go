package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vidlingo/internal/services"
)

func respondContent(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	payload := map[string]any{
		"choices": []any{
			map[string]any{
				"finish_reason": "stop",
				"message": map[string]any{
					"content": content,
				},
			},
		},
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		respondContent(t, w, `{"ok":true}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestTranslateBatchSendsArrayAndParsesObject(t *testing.T) {
	var got completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test" {
			t.Fatalf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		respondContent(t, w, `{"translations":["hola","mundo"]}`)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Temperature: 0.5, MaxTokens: 5000},
		WithProtectedTerms([]string{"Vidlingo"}),
	)
	out, err := client.TranslateBatch(context.Background(), []string{"hello", "world"}, "Spanish")
	if err != nil {
		t.Fatalf("TranslateBatch returned error: %v", err)
	}
	if len(out) != 2 || out[0] != "hola" || out[1] != "mundo" {
		t.Fatalf("unexpected translations %v", out)
	}
	if got.Model != "demo-model" || got.MaxTokens != 5000 || got.Temperature != 0.5 {
		t.Fatalf("unexpected request settings %+v", got)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(got.Messages))
	}
	if !strings.Contains(got.Messages[0].Content, "Spanish") || !strings.Contains(got.Messages[0].Content, "Vidlingo") {
		t.Fatalf("system prompt missing target or protected term: %q", got.Messages[0].Content)
	}
	if got.Messages[1].Content != `["hello","world"]` {
		t.Fatalf("unexpected user payload %q", got.Messages[1].Content)
	}
}

func TestTranslateBatchAcceptsFencedBareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondContent(t, w, "```json\n[\"uno\"]\n```")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	out, err := client.TranslateBatch(context.Background(), []string{"one"}, "Spanish")
	if err != nil {
		t.Fatalf("TranslateBatch returned error: %v", err)
	}
	if len(out) != 1 || out[0] != "uno" {
		t.Fatalf("unexpected translations %v", out)
	}
}

func TestTranslateBatchReturnsShortResultUnchanged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondContent(t, w, `{"translations":["a","b"]}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	out, err := client.TranslateBatch(context.Background(), []string{"1", "2", "3"}, "Thai")
	if err != nil {
		t.Fatalf("TranslateBatch returned error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected the model's two lines back, got %v", out)
	}
}

func TestTranslateBatchEmptyInputSkipsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty input")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	out, err := client.TranslateBatch(context.Background(), nil, "German")
	if err != nil {
		t.Fatalf("TranslateBatch returned error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %v", out)
	}
}

func TestTranslateBatchMalformedPayloadIsContractViolation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondContent(t, w, "sorry, I cannot help with that")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	_, err := client.TranslateBatch(context.Background(), []string{"hello"}, "French")
	if !errors.Is(err, services.ErrContractViolation) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestTranslateBatchServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithRetryMaxAttempts(2),
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.TranslateBatch(context.Background(), []string{"hello"}, "French")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if !services.IsRetryable(err) {
		t.Fatal("expected error to be retryable")
	}
}

func TestTranslateBatchMissingKeyIsConfiguration(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Model: "demo"})
	_, err := client.TranslateBatch(context.Background(), []string{"hello"}, "French")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTranslateOneUsesMetadataModel(t *testing.T) {
	var got completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		respondContent(t, w, "  Mi video  ")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "batch-model", MetadataModel: "meta-model"})
	out, err := client.TranslateOne(context.Background(), "My video", "Spanish", "title")
	if err != nil {
		t.Fatalf("TranslateOne returned error: %v", err)
	}
	if out != "Mi video" {
		t.Fatalf("unexpected translation %q", out)
	}
	if got.Model != "meta-model" {
		t.Fatalf("expected metadata model, got %q", got.Model)
	}
	if got.ResponseFormat != nil {
		t.Fatalf("expected plain text request, got response format %v", got.ResponseFormat)
	}
	if !strings.Contains(got.Messages[0].Content, "Translate the title of this video from English to Spanish") {
		t.Fatalf("unexpected prompt %q", got.Messages[0].Content)
	}
}

func TestTranslateOneEmptyTextSkipsRequest(t *testing.T) {
	client := NewClient(Config{APIKey: "test", BaseURL: "http://127.0.0.1:1", Model: "demo"})
	out, err := client.TranslateOne(context.Background(), "   ", "Spanish", "description")
	if err != nil || out != "" {
		t.Fatalf("expected empty result, got %q err=%v", out, err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		respondContent(t, w, `{"translations":["hallo"]}`)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	out, err := client.TranslateBatch(context.Background(), []string{"hello"}, "German")
	if err != nil {
		t.Fatalf("TranslateBatch returned error: %v", err)
	}
	if len(out) != 1 || out[0] != "hallo" {
		t.Fatalf("unexpected translations %v", out)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := ""
		if calls >= 3 {
			content = `{"translations":["bonjour"]}`
		}
		respondContent(t, w, content)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	out, err := client.TranslateBatch(context.Background(), []string{"hello"}, "French")
	if err != nil {
		t.Fatalf("TranslateBatch returned error: %v", err)
	}
	if out[0] != "bonjour" {
		t.Fatalf("unexpected translation %v", out)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDecodeLLMJSONExtractsEmbeddedObject(t *testing.T) {
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON("Here you go: {\"ok\":true} thanks", &parsed); err != nil {
		t.Fatalf("DecodeLLMJSON returned error: %v", err)
	}
	if !parsed.OK {
		t.Fatal("expected ok=true")
	}
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := retryPolicy{attempts: 6, base: time.Second, ceiling: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, expected := range want {
		if got := p.backoff(i + 1); got != expected {
			t.Fatalf("attempt %d: expected %s, got %s", i+1, expected, got)
		}
	}

	ctx := context.Background()
	if _, again := p.next(ctx, &statusError{Code: http.StatusBadRequest}, 1); again {
		t.Fatal("client errors must not be retried")
	}
	if delay, again := p.next(ctx, &statusError{Code: http.StatusServiceUnavailable, RetryAfter: time.Minute}, 1); !again || delay != 5*time.Second {
		t.Fatalf("expected retry-after clamped to ceiling, got %s %v", delay, again)
	}
	if _, again := p.next(ctx, &emptyReplyError{}, 6); again {
		t.Fatal("expected no retry after the last attempt")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("3"); got != 3*time.Second {
		t.Fatalf("expected 3s, got %s", got)
	}
	for _, value := range []string{"", "-1", "soon"} {
		if got := parseRetryAfter(value); got != 0 {
			t.Fatalf("parseRetryAfter(%q) = %s", value, got)
		}
	}
}
