package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vidlingo/internal/config"
)

const (
	defaultEndpoint    = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout = 120 * time.Second
	jsonObjectFormat   = "json_object"
)

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	MetadataModel  string
	Referer        string
	Title          string
	Temperature    float64
	MaxTokens      int
	TimeoutSeconds int
}

// ConfigFromSettings maps the [llm] section onto client settings.
func ConfigFromSettings(c config.LLM) Config {
	return Config{
		APIKey:         strings.TrimSpace(c.APIKey),
		BaseURL:        strings.TrimSpace(c.BaseURL),
		Model:          strings.TrimSpace(c.Model),
		MetadataModel:  strings.TrimSpace(c.MetadataModel),
		Referer:        strings.TrimSpace(c.Referer),
		Title:          strings.TrimSpace(c.Title),
		Temperature:    c.Temperature,
		MaxTokens:      c.MaxTokens,
		TimeoutSeconds: c.TimeoutSeconds,
	}
}

// Client talks to an OpenAI compatible chat completion endpoint.
type Client struct {
	cfg       Config
	http      *http.Client
	retry     retryPolicy
	protected []string
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts caps how many times one completion is attempted.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retry.attempts = attempts
	}
}

// WithRetryBackoff sets the first retry delay and the ceiling it doubles up to.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retry.base = baseDelay
		c.retry.ceiling = maxDelay
	}
}

// WithSleeper replaces the timer used between attempts.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.retry.sleeper = sleeper
	}
}

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEndpoint
	}
	if cfg.MetadataModel == "" {
		cfg.MetadataModel = cfg.Model
	}
	client := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: timeout},
		retry: defaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// HealthCheck issues a tiny JSON completion to prove the key and model work.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("llm health: api key required")
	}
	content, err := c.complete(ctx, "llm health", completionRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: "You must respond with JSON only."},
			{Role: "user", Content: `Respond with {"ok":true}`},
		},
		ResponseFormat: map[string]string{"type": jsonObjectFormat},
	})
	if err != nil {
		return err
	}
	var reply struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &reply); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !reply.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

type completionRequest struct {
	Model          string            `json:"model"`
	Messages       []message         `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionChoice struct {
	Message reply `json:"message"`
	// Some providers answer with the streaming shape even when stream=false.
	Delta        reply  `json:"delta"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type reply struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

type completionResponse struct {
	Choices []completionChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// content returns the first non-blank answer and the first finish reason seen.
func (r completionResponse) content() (string, string) {
	var finish string
	for _, choice := range r.Choices {
		if finish == "" {
			finish = strings.TrimSpace(choice.FinishReason)
		}
		for _, candidate := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if text := strings.TrimSpace(candidate); text != "" {
				return text, finish
			}
		}
	}
	return "", finish
}

func (r completionResponse) refusal() string {
	for _, choice := range r.Choices {
		for _, candidate := range []string{choice.Message.Refusal, choice.Delta.Refusal} {
			if text := strings.TrimSpace(candidate); text != "" {
				return text
			}
		}
	}
	return ""
}

// statusError is a non-2xx answer from the endpoint.
type statusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.Code, e.Body)
}

// emptyReplyError is a 2xx answer that carried no usable text.
type emptyReplyError struct {
	Op      string
	Finish  string
	Refusal string
	Snippet string
}

func (e *emptyReplyError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op, e.Finish, e.Refusal, e.Snippet)
}

// complete sends req until it yields text or the retry policy gives up.
func (c *Client) complete(ctx context.Context, op string, req completionRequest) (string, error) {
	var lastErr error
	attempts := c.retry.maxAttempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := c.post(ctx, op, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		delay, again := c.retry.next(ctx, err, attempt)
		if !again {
			return "", err
		}
		if err := c.retry.wait(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) post(ctx context.Context, op string, payload completionRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request (timeout=%s): %w", c.http.Timeout, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &statusError{
			Code:       resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var decoded completionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("llm request: decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("llm request: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	text, finish := decoded.content()
	if text == "" {
		return "", &emptyReplyError{
			Op:      op,
			Finish:  finish,
			Refusal: decoded.refusal(),
			Snippet: summarizePayloadSnippet(string(raw)),
		}
	}
	return text, nil
}
