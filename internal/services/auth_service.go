// Package services – AuthService
//
// This file implements account registration, login, and the password-reset
// flow. Passwords are bcrypt-hashed, tokens are HMAC-signed JWTs, and reset
// tokens are purpose-scoped with a short expiry so a leaked login token can
// never rotate a password.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/certivo/chatdesk-backend/internal/apperr"
	"github.com/certivo/chatdesk-backend/internal/auth"
	"github.com/certivo/chatdesk-backend/internal/domain"
	"github.com/certivo/chatdesk-backend/internal/repo"
)

// AuthService owns credential handling and token issuance.
type AuthService struct {
	DB     *gorm.DB
	Tokens *auth.TokenIssuer

	// BcryptCost is the work factor for new password hashes.
	BcryptCost int
}

// NormalizeEmail lowercases and trims an address; the email column stores
// this canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns it with a fresh login token.
// A duplicate email is reported as a bad request; the caller learns nothing
// beyond "already registered".
func (s *AuthService) Register(ctx context.Context, username, email, phone, password string) (*domain.User, string, error) {
	email = NormalizeEmail(email)
	if username = strings.TrimSpace(username); username == "" {
		return nil, "", apperr.BadRequest("username is required")
	}
	if email == "" {
		return nil, "", apperr.BadRequest("email is required")
	}
	if password == "" {
		return nil, "", apperr.BadRequest("password is required")
	}

	hash, err := auth.HashPassword(password, s.BcryptCost)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "hash password", err)
	}

	u, err := repo.CreateUser(ctx, s.DB, username, email, phone, hash, domain.RoleUser)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, "", apperr.BadRequest("email already registered")
		}
		return nil, "", apperr.Wrap(apperr.KindInternal, "create user", err)
	}

	token, err := s.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "issue token", err)
	}
	return u, token, nil
}

// Login verifies credentials and returns the account with a fresh token.
// An unknown email is not-found; a wrong password is unauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := repo.GetUserByEmail(ctx, s.DB, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", apperr.NotFound("no account for this email")
		}
		return nil, "", apperr.Wrap(apperr.KindInternal, "load user", err)
	}

	if !auth.ComparePassword(password, u.PasswordHash) {
		return nil, "", apperr.Unauthorized("invalid credentials")
	}

	token, err := s.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "issue token", err)
	}
	return u, token, nil
}

// ForgotPassword issues a short-lived reset token for the account behind
// email. The token only opens the ResetPassword door; it cannot be used as
// a login token.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	u, err := repo.GetUserByEmail(ctx, s.DB, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", apperr.NotFound("no account for this email")
		}
		return "", apperr.Wrap(apperr.KindInternal, "load user", err)
	}

	token, err := s.Tokens.IssueReset(u.ID, u.Role)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "issue reset token", err)
	}
	return token, nil
}

// ResetPassword verifies a reset token and replaces the stored hash.
// Login tokens and expired reset tokens are rejected.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return apperr.BadRequest("new password is required")
	}

	claims, err := s.Tokens.VerifyReset(token)
	if err != nil {
		return apperr.Unauthorized("invalid or expired reset token")
	}

	hash, err := auth.HashPassword(newPassword, s.BcryptCost)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "hash password", err)
	}

	if err := repo.UpdateUserPassword(ctx, s.DB, claims.UserID, hash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Wrap(apperr.KindInternal, "update password", err)
	}
	return nil
}
