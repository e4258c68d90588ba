package github

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, "test-token")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Client == nil {
		t.Error("Expected client to be initialized with explicit token")
	}

	// No token: should still init client, just unauthenticated.
	client, err = NewClient(ctx, "")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Client == nil || client.HTTP == nil {
		t.Error("Expected client to be initialized even without token")
	}
}

func TestNewClient_NilContextReturnsError(t *testing.T) {
	var nilCtx context.Context
	_, err := NewClient(nilCtx, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "ctx is nil") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewClient_WithBaseURL(t *testing.T) {
	c, err := NewClient(context.Background(), "", WithBaseURL("http://127.0.0.1:9999/api/v3"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if got := c.Client.BaseURL.String(); got != "http://127.0.0.1:9999/api/v3/" {
		t.Fatalf("BaseURL = %q", got)
	}

	if _, err := NewClient(context.Background(), "", WithBaseURL("ftp://example.com")); err == nil {
		t.Fatalf("expected error for non-http base url")
	}
}

func TestNewClient_SendsRegistryHeaders(t *testing.T) {
	ctx := context.Background()

	var gotAuth, gotAccept, gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotVersion = r.Header.Get("X-GitHub-Api-Version")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("[]"))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(ctx, "test-token", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	req, err := c.Client.NewRequest("GET", "user/packages", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if _, err := c.Client.Do(ctx, req, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer test-token")
	}
	if gotAccept != "application/vnd.github.v3+json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotVersion != "2022-11-28" {
		t.Errorf("X-GitHub-Api-Version = %q", gotVersion)
	}
}

func TestNewClient_WithVerbose_LogsAndAuthHeader(t *testing.T) {
	ctx := context.Background()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(server.Close)

	// Unauthenticated client should still log when verbose.
	{
		var buf bytes.Buffer
		c, err := NewClient(ctx, "", WithVerbose(true, debugLogger(&buf)), WithBaseURL(server.URL))
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		req, err := c.Client.NewRequest("GET", "rate_limit", nil)
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		if _, err = c.Client.Do(ctx, req, nil); err != nil {
			t.Fatalf("Do: %v", err)
		}
		if !strings.Contains(buf.String(), "github api request") || !strings.Contains(buf.String(), "method=GET") {
			t.Fatalf("expected verbose log, got: %q", buf.String())
		}
		if gotAuth != "" {
			t.Fatalf("expected no Authorization header, got %q", gotAuth)
		}
	}

	// Authenticated client should send Authorization header.
	{
		gotAuth = ""
		var buf bytes.Buffer
		c, err := NewClient(ctx, "test-token", WithVerbose(true, debugLogger(&buf)), WithBaseURL(server.URL))
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		req, err := c.Client.NewRequest("GET", "rate_limit", nil)
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		if _, err = c.Client.Do(ctx, req, nil); err != nil {
			t.Fatalf("Do: %v", err)
		}
		if !strings.Contains(buf.String(), "github api response") {
			t.Fatalf("expected verbose log, got: %q", buf.String())
		}
		if !strings.Contains(gotAuth, "test-token") {
			t.Fatalf("expected Authorization header to contain token, got %q", gotAuth)
		}
	}
}

type countingTransport struct {
	base  http.RoundTripper
	count *atomic.Int32
}

func (c countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.count.Add(1)
	return c.base.RoundTrip(req)
}

func TestNewClient_WithTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(server.Close)

	var n atomic.Int32
	c, err := NewClient(context.Background(), "tok",
		WithBaseURL(server.URL),
		WithTransport(func(base http.RoundTripper) http.RoundTripper {
			return countingTransport{base: base, count: &n}
		}),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	req, err := c.Client.NewRequest("GET", "rate_limit", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if _, err := c.Client.Do(context.Background(), req, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if n.Load() != 1 {
		t.Fatalf("wrapped transport saw %d requests, want 1", n.Load())
	}
}
