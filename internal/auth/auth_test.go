package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer("unit-test-secret", 7*24*time.Hour, 15*time.Minute)
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("secret1", 4) // min cost keeps the test fast
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must not equal the plain password")
	}
	if !ComparePassword("secret1", hash) {
		t.Fatal("correct password rejected")
	}
	if ComparePassword("wrong", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPassword_OutOfRangeCostFallsBack(t *testing.T) {
	hash, err := HashPassword("secret1", 99)
	if err != nil {
		t.Fatalf("HashPassword with bogus cost: %v", err)
	}
	if !ComparePassword("secret1", hash) {
		t.Fatal("fallback-cost hash does not verify")
	}
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	iss := newTestIssuer()

	tok, err := iss.Issue("u1", "admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "admin" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := newTestIssuer().Issue("u1", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	other := NewTokenIssuer("different-secret", time.Hour, time.Minute)
	if _, err := other.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	iss := newTestIssuer()
	iss.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	tok, err := iss.Issue("u1", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	iss.now = time.Now
	if _, err := iss.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestResetToken_PurposeIsEnforced(t *testing.T) {
	iss := newTestIssuer()

	login, err := iss.Issue("u1", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	reset, err := iss.IssueReset("u1", "user")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}

	// A login token must not pass as a reset token, and vice versa.
	if _, err := iss.VerifyReset(login); !errors.Is(err, ErrWrongPurpose) {
		t.Fatalf("login token accepted for reset: %v", err)
	}
	if _, err := iss.Verify(reset); !errors.Is(err, ErrWrongPurpose) {
		t.Fatalf("reset token accepted for login: %v", err)
	}
	if _, err := iss.VerifyReset(reset); err != nil {
		t.Fatalf("VerifyReset: %v", err)
	}
}

func TestResetToken_ShortExpiry(t *testing.T) {
	iss := newTestIssuer()
	issued := time.Now()
	iss.now = func() time.Time { return issued }

	tok, err := iss.IssueReset("u1", "user")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}

	iss.now = func() time.Time { return issued.Add(16 * time.Minute) }
	if _, err := iss.VerifyReset(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("reset token should expire after 15m, got %v", err)
	}
}
