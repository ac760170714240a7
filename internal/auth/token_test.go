package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIssueVerify(t *testing.T) {
	s := NewSigner("s3cret")
	tok, err := s.Issue("tui")
	if err != nil {
		t.Fatal(err)
	}
	client, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if client != "tui" {
		t.Errorf("client = %q, want tui", client)
	}
}

func TestVerifyRejects(t *testing.T) {
	s := NewSigner("s3cret")
	tok, _ := s.Issue("tui")

	if _, err := NewSigner("other").Verify(tok); err == nil {
		t.Errorf("token accepted with the wrong secret")
	}

	expired := NewSigner("s3cret")
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _ := expired.Issue("tui")
	if _, err := s.Verify(old); err == nil {
		t.Errorf("expired token accepted")
	}
}

func TestFromRequest(t *testing.T) {
	s := NewSigner("s3cret")

	r := httptest.NewRequest("GET", "/bridge", nil)
	if _, err := s.FromRequest(r); !errors.Is(err, ErrNoToken) {
		t.Errorf("error = %v, want ErrNoToken", err)
	}

	h, err := s.Header("ctl")
	if err != nil {
		t.Fatal(err)
	}
	r.Header = h
	client, err := s.FromRequest(r)
	if err != nil || client != "ctl" {
		t.Errorf("FromRequest = %q, %v", client, err)
	}
}
