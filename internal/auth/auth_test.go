package auth

import (
	"testing"
	"time"
)

func TestTokenManager_IssueAndVerify(t *testing.T) {
	tm := NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)

	token, err := tm.Issue("user-1", true)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", claims.UserID)
	}
	if !claims.Admin {
		t.Error("expected admin claim to survive the round trip")
	}
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)

	token, err := tm.Issue("user-1", false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tm.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, err := tm.Verify(token); err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tm := NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	other := NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour)

	token, err := tm.Issue("user-1", false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := other.Verify(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenManager_Garbage(t *testing.T) {
	tm := NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	if _, err := tm.Verify("not.a.token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHasher_RoundTrip(t *testing.T) {
	h := NewHasher(4) // minimum cost keeps the test fast

	hash, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if err := h.Compare(hash, "correct horse battery staple"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := h.Compare(hash, "wrong password"); err != ErrWrongPassword {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}
}

func TestHasher_RejectsShortPassword(t *testing.T) {
	h := NewHasher(4)
	if _, err := h.Hash("short"); err == nil {
		t.Error("expected error for short password")
	}
}
