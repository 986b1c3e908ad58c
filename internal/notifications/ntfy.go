package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

var htmlTags = regexp.MustCompile(`<[^>]+>`)

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Name() string { return "ntfy" }

func (n *ntfyService) Send(ctx context.Context, msg Message) error {
	if n == nil || n.client == nil {
		return nil
	}
	message := strings.TrimSpace(htmlTags.ReplaceAllString(msg.Body, ""))
	if to := strings.TrimSpace(msg.To); to != "" {
		message = fmt.Sprintf("%s\nRequester: %s", message, to)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.Subject != "" {
		req.Header.Set("Title", msg.Subject)
	}
	if len(msg.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.Tags, ","))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
