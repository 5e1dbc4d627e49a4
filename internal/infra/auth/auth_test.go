package auth

import (
	"testing"
	"time"
)

func TestPassword_HashAndCompare(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !ComparePassword("correct horse battery", hash) {
		t.Error("correct password should compare true")
	}
	if ComparePassword("wrong password", hash) {
		t.Error("wrong password should compare false")
	}
}

func TestToken_RoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	now := time.Now()

	signed, err := m.Issue(42, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	userID, err := m.Verify(signed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}
}

func TestToken_WrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	signed, err := issuer.Issue(42, time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(signed); err != ErrInvalidToken {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestToken_Expired(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	signed, err := m.Issue(42, time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m.Verify(signed); err != ErrInvalidToken {
		t.Errorf("err = %v, want ErrInvalidToken for expired token", err)
	}
}

func TestToken_Garbage(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	if _, err := m.Verify("not-a-jwt"); err != ErrInvalidToken {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
