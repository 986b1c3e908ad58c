package notifications

import (
	"context"
	"net/http"
	"strings"
	"time"

	"vidlingo/internal/config"
)

const userAgent = "vidlingo/0.1.0"

// Message is one notification.
type Message struct {
	To      string
	Subject string
	Body    string
	// Tags are forwarded to backends that support them (ntfy).
	Tags []string
}

// Service delivers notifications.
type Service interface {
	Send(ctx context.Context, msg Message) error
	// Name identifies the backend in logs and status output.
	Name() string
}

// NewService builds the configured backend. An unset or "none" backend, or a
// backend missing its required settings, yields a no-op service.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	n := cfg.Notifications
	timeout := time.Duration(n.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	switch strings.ToLower(strings.TrimSpace(n.Backend)) {
	case "customerio":
		if strings.TrimSpace(n.CustomerIOAppKey) == "" {
			return noopService{}
		}
		return &customerIOService{
			endpoint: n.CustomerIOURL,
			appKey:   n.CustomerIOAppKey,
			from:     n.FromAddress,
			client:   client,
		}
	case "ntfy":
		topic := strings.TrimSpace(n.NtfyTopic)
		if topic == "" {
			return noopService{}
		}
		return &ntfyService{endpoint: topic, client: client}
	default:
		return noopService{}
	}
}

// CompletionMessage is the notice sent after a successful publish.
func CompletionMessage(to, title, url string) Message {
	var body strings.Builder
	body.WriteString("<strong>Your translated video has been uploaded to YouTube!</strong><br><br>\n")
	body.WriteString("Title: ")
	body.WriteString(strings.TrimSpace(title))
	body.WriteString("<br>\n")
	body.WriteString("You can view it here: ")
	body.WriteString(strings.TrimSpace(url))
	return Message{
		To:      strings.TrimSpace(to),
		Subject: "Your translated video has been uploaded!",
		Body:    body.String(),
		Tags:    []string{"vidlingo", "published"},
	}
}

// TestMessage is sent by `vidlingo test-notify`.
func TestMessage(to string) Message {
	return Message{
		To:      strings.TrimSpace(to),
		Subject: "vidlingo notification test",
		Body:    "Notification delivery is working.",
		Tags:    []string{"vidlingo", "test"},
	}
}

type noopService struct{}

func (noopService) Send(context.Context, Message) error { return nil }
func (noopService) Name() string                         { return "none" }
