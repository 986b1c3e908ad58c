package notifications_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vidlingo/internal/config"
	"vidlingo/internal/logging"
	"vidlingo/internal/notifications"
)

func TestNewServiceReturnsNoopWhenBackendUnset(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Backend = "none"
	svc := notifications.NewService(&cfg)
	if svc.Name() != "none" {
		t.Fatalf("expected noop backend, got %s", svc.Name())
	}
	if err := svc.Send(context.Background(), notifications.TestMessage("a@b.c")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNewServiceCustomerIOWithoutKeyIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Backend = "customerio"
	cfg.Notifications.CustomerIOAppKey = ""
	if name := notifications.NewService(&cfg).Name(); name != "none" {
		t.Fatalf("expected noop backend, got %s", name)
	}
}

func TestCompletionMessageCarriesTitleAndURL(t *testing.T) {
	msg := notifications.CompletionMessage(" a@b.c ", "Mi video", "https://www.youtube.com/watch?v=x1")
	if msg.To != "a@b.c" {
		t.Fatalf("unexpected recipient %q", msg.To)
	}
	if msg.Subject != "Your translated video has been uploaded!" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Title: Mi video") || !strings.Contains(msg.Body, "https://www.youtube.com/watch?v=x1") {
		t.Fatalf("unexpected body %q", msg.Body)
	}
}

func TestCustomerIOServiceSendsTransactionalEmail(t *testing.T) {
	var got map[string]any
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.Backend = "customerio"
	cfg.Notifications.CustomerIOAppKey = "app-key"
	cfg.Notifications.CustomerIOURL = server.URL
	cfg.Notifications.FromAddress = "Video Translation <videos@example.com>"
	svc := notifications.NewService(&cfg)

	msg := notifications.CompletionMessage("user@example.com", "Hola", "https://www.youtube.com/watch?v=x1")
	if err := svc.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if auth != "Bearer app-key" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got["to"] != "user@example.com" || got["from"] != "Video Translation <videos@example.com>" {
		t.Fatalf("unexpected addressing %v", got)
	}
	identifiers, _ := got["identifiers"].(map[string]any)
	if identifiers["email"] != "user@example.com" {
		t.Fatalf("unexpected identifiers %v", got["identifiers"])
	}
}

func TestNtfyServicePostsPlainText(t *testing.T) {
	var title, tags, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("Title")
		tags = r.Header.Get("Tags")
		data, _ := io.ReadAll(r.Body)
		body = string(data)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.Backend = "ntfy"
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	msg := notifications.CompletionMessage("user@example.com", "Hola", "https://www.youtube.com/watch?v=x1")
	if err := svc.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if title != msg.Subject || tags != "vidlingo,published" {
		t.Fatalf("unexpected headers title=%q tags=%q", title, tags)
	}
	if strings.Contains(body, "<strong>") || !strings.Contains(body, "Requester: user@example.com") {
		t.Fatalf("unexpected body %q", body)
	}
}

type failingService struct{ calls int }

func (f *failingService) Send(context.Context, notifications.Message) error {
	f.calls++
	return io.ErrUnexpectedEOF
}

func (f *failingService) Name() string { return "failing" }

func TestStageSwallowsDeliveryFailure(t *testing.T) {
	svc := &failingService{}
	stage := notifications.NewStage(svc, logging.NewNop())
	if ok := stage.Notify(context.Background(), notifications.TestMessage("a@b.c")); ok {
		t.Fatal("expected failed delivery to report false")
	}
	if svc.calls != 1 {
		t.Fatalf("expected one delivery attempt, got %d", svc.calls)
	}
}

func TestStageWithNilServiceIsNoop(t *testing.T) {
	stage := notifications.NewStage(nil, logging.NewNop())
	if ok := stage.Notify(context.Background(), notifications.TestMessage("a@b.c")); !ok {
		t.Fatal("expected noop delivery to succeed")
	}
}
