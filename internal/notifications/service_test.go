package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"genreclf/internal/config"
	"genreclf/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newRecorder(t *testing.T) (*httptest.Server, func() []captured) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), reqs...)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "train"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	srv, requests := newRecorder(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.Skipped = true
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	prior := 0.4
	if err := svc.NotifyPublished(ctx, "f1_micro", 0.5, &prior); err != nil {
		t.Fatalf("NotifyPublished returned error: %v", err)
	}
	if err := svc.NotifySkipped(ctx, "f1_micro", 0.55, 0.6); err != nil {
		t.Fatalf("NotifySkipped returned error: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("registry down"), "publish"); err != nil {
		t.Fatalf("NotifyError returned error: %v", err)
	}

	got := requests()
	if len(got) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(got))
	}
	want := []captured{
		{title: "genreclf - Model Published", tags: "genreclf,publish,published", priority: "high", body: "Published new genre model: f1_micro=0.5000 (was 0.4000)"},
		{title: "genreclf - Publish Skipped", tags: "genreclf,publish,skipped", body: "Kept published model: f1_micro=0.5500 did not beat 0.6000"},
		{title: "genreclf - Error", tags: "genreclf,error,alert", priority: "high", body: "Error during publish: registry down"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("request %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestNtfyServiceHonoursEventToggles(t *testing.T) {
	srv, requests := newRecorder(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.Published = false
	cfg.Notifications.Skipped = false
	svc := notifications.NewService(&cfg)

	_ = svc.NotifyPublished(context.Background(), "f1_micro", 0.1, nil)
	_ = svc.NotifySkipped(context.Background(), "f1_micro", 0.1, 0.2)
	if n := len(requests()); n != 0 {
		t.Fatalf("expected disabled events to send nothing, got %d requests", n)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic not allowed", http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
