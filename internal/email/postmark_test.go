package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendVerificationCode(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@techpulse.test", WithAPIURL(server.URL))

	if err := client.SendVerificationCode("alice@example.com", "123456"); err != nil {
		t.Fatalf("send verification code: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "alice@example.com" {
		t.Errorf("To = %q, want %q", received.To, "alice@example.com")
	}
	if received.From != "noreply@techpulse.test" {
		t.Errorf("From = %q, want %q", received.From, "noreply@techpulse.test")
	}
	if received.Subject != "TechPulse - Email Verification Code" {
		t.Errorf("Subject = %q", received.Subject)
	}
	if !strings.Contains(received.TextBody, "123456") {
		t.Errorf("TextBody missing code: %q", received.TextBody)
	}
	if !strings.Contains(received.HtmlBody, "123456") {
		t.Errorf("HtmlBody missing code: %q", received.HtmlBody)
	}
}

func TestSendVerificationCodeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@techpulse.test", WithAPIURL(server.URL))

	if err := client.SendVerificationCode("alice@example.com", "123456"); err == nil {
		t.Fatal("expected error for 422 response, got nil")
	}
}

func TestSendVerificationCodeUnconfigured(t *testing.T) {
	client := NewClient("", "noreply@techpulse.test")

	if client.Configured() {
		t.Error("Configured = true with empty token")
	}
	if err := client.SendVerificationCode("alice@example.com", "123456"); err == nil {
		t.Fatal("expected error for unconfigured client, got nil")
	}
}
