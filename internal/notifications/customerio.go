package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultCustomerIOURL = "https://api.customer.io/v1/send/email"

type customerIOService struct {
	endpoint string
	appKey   string
	from     string
	client   *http.Client
}

type customerIORequest struct {
	To          string            `json:"to"`
	From        string            `json:"from,omitempty"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body"`
	Identifiers map[string]string `json:"identifiers"`
}

func (c *customerIOService) Name() string { return "customerio" }

func (c *customerIOService) Send(ctx context.Context, msg Message) error {
	if c == nil || c.client == nil {
		return nil
	}
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return fmt.Errorf("customer.io: recipient address is required")
	}
	endpoint := strings.TrimSpace(c.endpoint)
	if endpoint == "" {
		endpoint = defaultCustomerIOURL
	}
	payload, err := json.Marshal(customerIORequest{
		To:          to,
		From:        c.from,
		Subject:     msg.Subject,
		Body:        msg.Body,
		Identifiers: map[string]string{"email": to},
	})
	if err != nil {
		return fmt.Errorf("encode customer.io request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build customer.io request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.appKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send customer.io email: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("customer.io returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
