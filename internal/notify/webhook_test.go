package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codeguardian-ai/codeguardian/internal/config"
)

func TestWebhookSendSignsPayload(t *testing.T) {
	var gotBody []byte
	var gotSig, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-Codeguardian-Signature")
		gotType = r.Header.Get("Content-Type")
	}))
	defer srv.Close()

	ch := NewWebhook(config.WebhookNotifyConfig{URL: srv.URL, Secret: "s3cret"})
	if !ch.IsConfigured() {
		t.Fatal("channel with URL should be configured")
	}

	evt := Event{
		Type:     "critical_finding",
		Title:    "SQL injection in login.js",
		Severity: "CRITICAL",
		RepoKey:  "acme/webapp",
	}
	if err := ch.Send(context.Background(), evt); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotType != "application/json" {
		t.Fatalf("content type = %q", gotType)
	}

	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSig != want {
		t.Fatalf("signature = %q, want %q", gotSig, want)
	}

	var payload map[string]any
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if payload["type"] != "critical_finding" || payload["repo"] != "acme/webapp" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestWebhookSendWithoutSecret(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Codeguardian-Signature")
	}))
	defer srv.Close()

	ch := NewWebhook(config.WebhookNotifyConfig{URL: srv.URL})
	if err := ch.Send(context.Background(), Event{Type: "scan_completed"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotSig != "" {
		t.Fatal("unsigned channel set a signature header")
	}
}

func TestWebhookSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ch := NewWebhook(config.WebhookNotifyConfig{URL: srv.URL})
	if err := ch.Send(context.Background(), Event{Type: "scan_completed"}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestDispatcherSelectsConfiguredChannels(t *testing.T) {
	d := NewDispatcher(config.NotifyConfig{})
	if d.IsAnyConfigured() {
		t.Fatal("empty config should configure no channels")
	}

	d = NewDispatcher(config.NotifyConfig{
		Webhook: config.WebhookNotifyConfig{URL: "http://localhost:1/hook"},
	})
	if !d.IsAnyConfigured() {
		t.Fatal("webhook URL should configure the webhook channel")
	}

	// Notify never propagates delivery failures.
	d.Notify(context.Background(), Event{Type: "scan_failed"})
}
