package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"contentengine/internal/config"
)

const userAgent = "contentengine/0.1"

// Event names a workflow milestone worth telling the operator about.
type Event string

const (
	EventItemSucceeded  Event = "item_succeeded"
	EventItemFailed     Event = "item_failed"
	EventBatchCompleted Event = "batch_completed"
	EventTest           Event = "test"
)

// Payload carries event fields. Keys are event specific:
//
//	item_succeeded:  name, link
//	item_failed:     name, error, stage
//	batch_completed: succeeded, failed, skipped, duration
type Payload map[string]any

// Service publishes workflow events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed notifier. Without a topic it returns a
// no-op implementation.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventItemSucceeded:  cfg.Notifications.ItemSucceeded,
			EventItemFailed:     cfg.Notifications.ItemFailed,
			EventBatchCompleted: cfg.Notifications.BatchSummary,
			EventTest:           true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventItemSucceeded:
		body := fmt.Sprintf("✅ Published: %s", payload.text("name"))
		if link := payload.text("link"); link != "" {
			body += "\n" + link
		}
		return message{
			title: "Content Engine - Published",
			body:  body,
			tags:  []string{"contentengine", "item", "completed"},
		}, true
	case EventItemFailed:
		var b strings.Builder
		b.WriteString("❌ Failed")
		if name := payload.text("name"); name != "" {
			b.WriteString(": ")
			b.WriteString(name)
		}
		if stage := payload.text("stage"); stage != "" {
			b.WriteString(" during ")
			b.WriteString(stage)
		}
		if reason := payload.text("error"); reason != "" {
			b.WriteString("\n")
			b.WriteString(reason)
		}
		return message{
			title:    "Content Engine - Error",
			body:     b.String(),
			tags:     []string{"contentengine", "error", "alert"},
			priority: "high",
		}, true
	case EventBatchCompleted:
		succeeded := payload.number("succeeded")
		failed := payload.number("failed")
		skipped := payload.number("skipped")
		duration := payload.duration("duration")
		title := "Content Engine - Batch Complete"
		body := fmt.Sprintf("Batch complete: %d published, %d skipped in %s", succeeded, skipped, duration)
		if failed > 0 {
			title = "Content Engine - Batch Complete (with errors)"
			body = fmt.Sprintf("Batch complete: %d published, %d failed, %d skipped in %s", succeeded, failed, skipped, duration)
		}
		return message{
			title: title,
			body:  body,
			tags:  []string{"contentengine", "batch", "completed"},
		}, true
	case EventTest:
		return message{
			title:    "Content Engine - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"contentengine", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func (p Payload) text(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (p Payload) number(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (p Payload) duration(key string) string {
	d, _ := p[key].(time.Duration)
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n.client == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
