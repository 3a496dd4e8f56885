package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

func TestSubmissionNormalize(t *testing.T) {
	tests := []struct {
		name       string
		in         Submission
		wantFields []string
	}{
		{
			name: "valid contact",
			in:   Submission{Kind: KindContact, Name: " Ana ", Email: "ana@example.com", Message: " hi "},
		},
		{
			name: "valid sample without message",
			in:   Submission{Kind: KindSample, Name: "Ana", Email: "ana@example.com"},
		},
		{
			name:       "contact needs message",
			in:         Submission{Name: "Ana", Email: "ana@example.com"},
			wantFields: []string{"message"},
		},
		{
			name:       "everything missing",
			in:         Submission{Kind: KindContact},
			wantFields: []string{"name", "email", "message"},
		},
		{
			name:       "bad email",
			in:         Submission{Kind: KindSample, Name: "Ana", Email: "not-an-email"},
			wantFields: []string{"email"},
		},
		{
			name:       "display name email",
			in:         Submission{Kind: KindSample, Name: "Ana", Email: "Ana <ana@example.com>"},
			wantFields: []string{"email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Name != strings.TrimSpace(tt.in.Name) || got.Kind == "" {
					t.Fatalf("not normalized: %+v", got)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Fatalf("fields = %v, want %v", verr.Fields, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("missing field %q in %v", f, verr.Fields)
				}
				if !strings.Contains(verr.Error(), f) {
					t.Errorf("error text %q does not mention %q", verr.Error(), f)
				}
			}
		})
	}
}

func TestFormRelaySuccess(t *testing.T) {
	var gotForm map[string]string
	var gotAccept, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = map[string]string{
			"name":     r.PostForm.Get("name"),
			"email":    r.PostForm.Get("email"),
			"message":  r.PostForm.Get("message"),
			"_subject": r.PostForm.Get("_subject"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	relay := NewFormRelay(srv.URL, time.Second)
	err := relay.Submit(context.Background(), Submission{Kind: KindContact, Name: "Ana", Email: "ana@example.com", Message: "Hello"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotForm["name"] != "Ana" || gotForm["email"] != "ana@example.com" || gotForm["message"] != "Hello" {
		t.Errorf("unexpected form %v", gotForm)
	}
	if gotForm["_subject"] != "Contact message from Ana" {
		t.Errorf("subject = %q", gotForm["_subject"])
	}
}

func TestFormRelayRejected(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusFound} {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if status == http.StatusFound {
				// redirect to a failing page; the client follows it
				if r.URL.Path == "/" {
					http.Redirect(w, r, "/gone", http.StatusFound)
					return
				}
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(status)
		}))

		relay := NewFormRelay(srv.URL, time.Second)
		err := relay.Submit(context.Background(), Submission{Kind: KindSample, Name: "Ana", Email: "ana@example.com"})
		if !errors.Is(err, ErrRejected) {
			t.Errorf("status %d: expected ErrRejected, got %v", status, err)
		}
		if status != http.StatusFound && calls != 1 {
			t.Errorf("status %d: expected exactly one attempt, got %d", status, calls)
		}
		srv.Close()
	}
}

func TestFormRelayNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	relay := NewFormRelay(url, time.Second)
	err := relay.Submit(context.Background(), Submission{Kind: KindSample, Name: "Ana", Email: "ana@example.com"})
	if err == nil {
		t.Fatal("expected network error")
	}
	if errors.Is(err, ErrRejected) {
		t.Fatal("network errors are not rejections")
	}
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestDisabledRelay(t *testing.T) {
	if err := (Disabled{}).Submit(context.Background(), Submission{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSMTPRelayIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   SMTPConfig
		expected bool
	}{
		{name: "empty config", config: SMTPConfig{}, expected: false},
		{name: "missing host", config: SMTPConfig{Port: "587", From: "a@example.com", To: "b@example.com"}, expected: false},
		{name: "missing recipient", config: SMTPConfig{Host: "smtp.example.com", Port: "587", From: "a@example.com"}, expected: false},
		{name: "fully configured", config: SMTPConfig{Host: "smtp.example.com", Port: "587", From: "a@example.com", To: "b@example.com"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewSMTPRelay(tt.config).IsConfigured(); got != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSMTPRelaySubmit(t *testing.T) {
	r := NewSMTPRelay(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     "587",
		From:     "site@example.com",
		FromName: "Animal Activity Zone",
		To:       "support@example.com",
	})

	var gotAddr string
	var gotTo []string
	var gotMsg string
	r.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotTo = to
		gotMsg = string(msg)
		return nil
	}

	err := r.Submit(context.Background(), Submission{
		Kind:    KindContact,
		Name:    "Ana\r\nBcc: evil@example.com",
		Email:   "ana@example.com",
		Message: "<b>hello</b>",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "support@example.com" {
		t.Errorf("to = %v", gotTo)
	}
	if strings.Contains(gotMsg, "\r\nBcc:") {
		t.Error("header injection not neutralized")
	}
	if !strings.Contains(gotMsg, "Reply-To: ana@example.com") {
		t.Error("missing Reply-To header")
	}
	if !strings.Contains(gotMsg, "&lt;b&gt;hello&lt;/b&gt;") {
		t.Error("html part should escape the message")
	}
}

func TestSMTPRelayNotConfigured(t *testing.T) {
	r := NewSMTPRelay(SMTPConfig{})
	if err := r.Submit(context.Background(), Submission{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestRenderSubmissionTemplate(t *testing.T) {
	html, err := renderTemplate(submissionEmailTemplate, Submission{Kind: KindSample, Name: "Test User", Email: "t@example.com"})
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}
	if !strings.Contains(html, "Free sample request") {
		t.Error("template should mention sample request")
	}
	if !strings.Contains(html, "Test User") {
		t.Error("template should contain the name")
	}
}
