package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient_TransientError(t *testing.T) {
	err := NewTransientError(errors.New("service unavailable"), 503)
	if !IsTransient(err) {
		t.Error("TransientError should be transient")
	}
}

func TestIsTransient_WrappedTransientError(t *testing.T) {
	inner := NewTransientError(errors.New("gateway timeout"), 504)
	wrapped := fmt.Errorf("fetch page: %w", inner)
	if !IsTransient(wrapped) {
		t.Error("wrapped TransientError should be transient")
	}
}

func TestIsTransient_PlainError(t *testing.T) {
	if IsTransient(errors.New("invalid input")) {
		t.Error("plain error should not be transient")
	}
}

func TestIsTransient_Nil(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil should not be transient")
	}
}

func TestIsTransient_StringPatterns(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"connection reset by peer", true},
		{"connection refused", true},
		{"i/o timeout", true},
		{"unexpected EOF", true},
		{"TLS handshake timeout", true},
		{"no such host", false},
		{"record not found", false},
	}
	for _, c := range cases {
		if got := IsTransient(errors.New(c.msg)); got != c.want {
			t.Errorf("IsTransient(%q) = %v, want %v", c.msg, got, c.want)
		}
	}
}

func TestIsTransient_ContextCanceled(t *testing.T) {
	if IsTransient(context.Canceled) {
		t.Error("context.Canceled should not be transient")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	transient := []int{408, 429, 500, 502, 503, 504}
	for _, code := range transient {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("status %d should be transient", code)
		}
	}
	permanent := []int{200, 301, 400, 401, 403, 404, 410, 422}
	for _, code := range permanent {
		if IsTransientHTTPStatus(code) {
			t.Errorf("status %d should not be transient", code)
		}
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	err := NewTransientError(inner, 500)
	if !errors.Is(err, inner) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestTransientError_Message(t *testing.T) {
	err := NewTransientError(errors.New("upstream hiccup"), 502)
	msg := err.Error()
	if msg == "" {
		t.Fatal("expected non-empty message")
	}
	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatal("errors.As should match TransientError")
	}
	if te.StatusCode != 502 {
		t.Errorf("expected status 502, got %d", te.StatusCode)
	}
}

func TestClassifyError(t *testing.T) {
	if got := ClassifyError(NewTransientError(errors.New("x"), 503)); got != "transient" {
		t.Errorf("expected transient, got %q", got)
	}
	if got := ClassifyError(errors.New("parse failure")); got != "permanent" {
		t.Errorf("expected permanent, got %q", got)
	}
}
