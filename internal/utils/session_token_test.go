package utils

import (
	"errors"
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	tok, err := NewSessionToken("secret", 42, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	claims, err := ParseSessionToken("secret", tok.Token)
	if err != nil {
		t.Fatalf("ParseSessionToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.SessionID != tok.SessionID {
		t.Errorf("SessionID = %q, want %q", claims.SessionID, tok.SessionID)
	}
}

func TestParseSessionTokenRejects(t *testing.T) {
	good, err := NewSessionToken("secret", 7, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	expired, err := NewSessionToken("secret", 7, -time.Hour)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}

	tests := []struct {
		name   string
		secret string
		raw    string
	}{
		{"wrong secret", "other", good.Token},
		{"expired", "secret", expired.Token},
		{"garbage", "secret", "not-a-jwt"},
		{"empty", "secret", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSessionToken(tt.secret, tt.raw)
			if !errors.Is(err, ErrInvalidSessionToken) {
				t.Fatalf("err = %v, want ErrInvalidSessionToken", err)
			}
		})
	}
}

func TestHashSessionIDStable(t *testing.T) {
	a := HashSessionID("abc")
	if a != HashSessionID("abc") {
		t.Fatal("hash is not deterministic")
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
	if a == HashSessionID("abd") {
		t.Error("different inputs produced the same hash")
	}
}
