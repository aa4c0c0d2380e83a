package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewService("test-secret", time.Hour)

	id, token, err := s.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken err: %v", err)
	}
	if id == uuid.Nil || token == "" {
		t.Fatalf("empty id or token")
	}

	parsed, err := s.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken err: %v", err)
	}
	if parsed != id {
		t.Fatalf("parsed id %s, want %s", parsed, id)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	s := NewService("test-secret", time.Hour)
	if _, err := s.ParseToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", time.Hour)
	verifier := NewService("secret-b", time.Hour)

	_, token, err := issuer.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken err: %v", err)
	}
	if _, err := verifier.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	s := NewService("test-secret", -time.Minute)
	_, token, err := s.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken err: %v", err)
	}
	if _, err := s.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestAttachRejectsSecondGame(t *testing.T) {
	s := NewService("test-secret", time.Hour)
	id := uuid.New()

	if err := s.Attach(id, nil); err != nil {
		t.Fatalf("first Attach err: %v", err)
	}
	if err := s.Attach(id, nil); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
	if s.Count() != 1 {
		t.Fatalf("Count = %d, want 1", s.Count())
	}

	s.Detach(id)
	if s.Count() != 0 {
		t.Fatalf("Count after Detach = %d, want 0", s.Count())
	}
	if err := s.Attach(id, nil); err != nil {
		t.Fatalf("re-Attach after Detach err: %v", err)
	}
}
