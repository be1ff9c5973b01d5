package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"genreclf/internal/config"
)

const userAgent = "genreclf/1.0"

// Service defines the notification surface used by the pipeline.
type Service interface {
	NotifyPublished(ctx context.Context, metric string, value float64, prior *float64) error
	NotifySkipped(ctx context.Context, metric string, value, prior float64) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
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
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		published: cfg.Notifications.Published,
		skipped:   cfg.Notifications.Skipped,
		errors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	published bool
	skipped   bool
	errors    bool
}

func (n *ntfyService) NotifyPublished(ctx context.Context, metric string, value float64, prior *float64) error {
	if !n.published {
		return nil
	}
	message := fmt.Sprintf("Published new genre model: %s=%.4f (first publish)", metric, value)
	if prior != nil {
		message = fmt.Sprintf("Published new genre model: %s=%.4f (was %.4f)", metric, value, *prior)
	}
	return n.send(ctx, payload{
		title:    "genreclf - Model Published",
		message:  message,
		tags:     []string{"genreclf", "publish", "published"},
		priority: "high",
	})
}

func (n *ntfyService) NotifySkipped(ctx context.Context, metric string, value, prior float64) error {
	if !n.skipped {
		return nil
	}
	return n.send(ctx, payload{
		title:   "genreclf - Publish Skipped",
		message: fmt.Sprintf("Kept published model: %s=%.4f did not beat %.4f", metric, value, prior),
		tags:    []string{"genreclf", "publish", "skipped"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "genreclf - Error",
		message:  builder.String(),
		tags:     []string{"genreclf", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "genreclf - Test",
		message:  "Notification system test",
		tags:     []string{"genreclf", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

func (noopService) NotifyPublished(context.Context, string, float64, *float64) error { return nil }
func (noopService) NotifySkipped(context.Context, string, float64, float64) error    { return nil }
func (noopService) NotifyError(context.Context, error, string) error                 { return nil }
func (noopService) TestNotification(context.Context) error                           { return nil }
