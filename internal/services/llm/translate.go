package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"vidlingo/internal/services"
)

const stageName = "translate"

// TranslateBatch translates texts into target and returns one string per input
// line. The returned slice is whatever the model produced; it may differ in
// length from texts.
func (c *Client) TranslateBatch(ctx context.Context, texts []string, target string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "batch", "llm api key required", nil)
	}
	input, err := json.Marshal(texts)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, stageName, "batch", "encode input", err)
	}
	payload := completionRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: batchSystemPrompt(target, c.protectedTerms())},
			{Role: "user", Content: string(input)},
		},
		Temperature:    c.cfg.Temperature,
		MaxTokens:      c.cfg.MaxTokens,
		ResponseFormat: map[string]string{"type": jsonObjectFormat},
	}
	content, err := c.complete(ctx, "llm translate batch", payload)
	if err != nil {
		return nil, classify(err, "batch")
	}
	out, err := decodeTranslations(content)
	if err != nil {
		return nil, services.Wrap(services.ErrContractViolation, stageName, "batch", "malformed translation payload", err)
	}
	return out, nil
}

// TranslateOne translates a single metadata string, such as a title or a
// description, and returns plain text.
func (c *Client) TranslateOne(ctx context.Context, text, target, kind string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", services.Wrap(services.ErrConfiguration, stageName, kind, "llm api key required", nil)
	}
	payload := completionRequest{
		Model: c.cfg.MetadataModel,
		Messages: []message{
			{Role: "system", Content: metadataSystemPrompt(target, kind, c.protectedTerms())},
			{Role: "user", Content: text},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	content, err := c.complete(ctx, "llm translate "+kind, payload)
	if err != nil {
		return "", classify(err, kind)
	}
	return strings.TrimSpace(stripCodeFenceBlock(content)), nil
}

// WithProtectedTerms sets words the model must leave untranslated.
func WithProtectedTerms(terms []string) Option {
	return func(c *Client) {
		c.protected = append([]string(nil), terms...)
	}
}

func (c *Client) protectedTerms() []string {
	out := make([]string, 0, len(c.protected))
	for _, term := range c.protected {
		if term = strings.TrimSpace(term); term != "" {
			out = append(out, term)
		}
	}
	return out
}

func batchSystemPrompt(target string, protected []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You translate video captions from English to %s.\n", target)
	b.WriteString("The user message is a JSON array of caption lines.\n")
	b.WriteString("Return a JSON object {\"translations\": [...]} with exactly one translated string per input line, in the same order.\n")
	b.WriteString("Never combine, split, drop or reorder lines. Keep empty lines empty.\n")
	if len(protected) > 0 {
		fmt.Fprintf(&b, "Leave these terms untranslated: %s.\n", strings.Join(protected, ", "))
	}
	return b.String()
}

func metadataSystemPrompt(target, kind string, protected []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the %s of this video from English to %s.\n", kind, target)
	b.WriteString("Respond with the translated text only, without quotes or commentary.\n")
	if len(protected) > 0 {
		fmt.Fprintf(&b, "Leave these terms untranslated: %s.\n", strings.Join(protected, ", "))
	}
	return b.String()
}

func decodeTranslations(content string) ([]string, error) {
	var wrapped struct {
		Translations *[]string `json:"translations"`
	}
	if err := DecodeLLMJSON(content, &wrapped); err == nil && wrapped.Translations != nil {
		return *wrapped.Translations, nil
	}
	var bare []string
	if err := DecodeLLMJSON(content, &bare); err != nil {
		return nil, err
	}
	return bare, nil
}

func classify(err error, operation string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, stageName, operation, "llm request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return services.Wrap(services.ErrDelegate, stageName, operation, "llm request canceled", err)
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusUnauthorized, statusErr.Code == http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, stageName, operation, "llm rejected credentials", err)
		case statusErr.Code == http.StatusRequestTimeout,
			statusErr.Code == http.StatusTooManyRequests,
			statusErr.Code >= http.StatusInternalServerError:
			return services.Wrap(services.ErrTransient, stageName, operation, "llm unavailable", err)
		}
		return services.Wrap(services.ErrDelegate, stageName, operation, "llm request failed", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTransient, stageName, operation, "llm network timeout", err)
	}
	var emptyErr *emptyReplyError
	if errors.As(err, &emptyErr) {
		return services.Wrap(services.ErrTransient, stageName, operation, "llm returned empty content", err)
	}
	return services.Wrap(services.ErrDelegate, stageName, operation, "llm request failed", err)
}
