package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. Login tokens authenticate API calls; reset tokens are only
// accepted by the password-reset endpoint and carry a much shorter expiry.
const (
	PurposeLogin         = "login"
	PurposePasswordReset = "password_reset"
)

// Token verification errors.
var (
	// ErrInvalidToken covers malformed, mis-signed, and expired tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrWrongPurpose is returned when a token is valid but presented to an
	// endpoint expecting a different purpose (e.g. a login token used for
	// password reset).
	ErrWrongPurpose = errors.New("token purpose mismatch")
)

// Claims is the payload embedded in every issued token.
type Claims struct {
	UserID  string `json:"userId"`
	Role    string `json:"role"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HMAC (HS256) tokens.
type TokenIssuer struct {
	secret        []byte
	tokenTTL      time.Duration
	resetTokenTTL time.Duration

	// now is swappable in tests.
	now func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer. tokenTTL applies to login tokens,
// resetTTL to password-reset tokens.
func NewTokenIssuer(secret string, tokenTTL, resetTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:        []byte(secret),
		tokenTTL:      tokenTTL,
		resetTokenTTL: resetTTL,
		now:           time.Now,
	}
}

// Issue signs a login token embedding userID and role.
func (t *TokenIssuer) Issue(userID, role string) (string, error) {
	return t.sign(userID, role, PurposeLogin, t.tokenTTL)
}

// IssueReset signs a short-lived token usable only for password reset.
// Contrary to login tokens it expires quickly, so a leaked reset link does
// not double as a session credential.
func (t *TokenIssuer) IssueReset(userID, role string) (string, error) {
	return t.sign(userID, role, PurposePasswordReset, t.resetTokenTTL)
}

func (t *TokenIssuer) sign(userID, role, purpose string, ttl time.Duration) (string, error) {
	now := t.now().UTC()
	claims := Claims{
		UserID:  userID,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses and validates a login token, returning its claims.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	return t.verify(token, PurposeLogin)
}

// VerifyReset parses and validates a password-reset token.
func (t *TokenIssuer) VerifyReset(token string) (*Claims, error) {
	return t.verify(token, PurposePasswordReset)
}

func (t *TokenIssuer) verify(token, purpose string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return t.now() }))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	// Tokens minted before purposes existed default to login.
	got := claims.Purpose
	if got == "" {
		got = PurposeLogin
	}
	if got != purpose {
		return nil, ErrWrongPurpose
	}
	return &claims, nil
}
