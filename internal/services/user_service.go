// Package services – UserService
//
// Account administration: listing, reading, profile edits, role changes, and
// deletion. Authorization is enforced at the HTTP layer; this service only
// validates the data itself.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/certivo/chatdesk-backend/internal/apperr"
	"github.com/certivo/chatdesk-backend/internal/domain"
	"github.com/certivo/chatdesk-backend/internal/repo"
)

// UserUpdate carries a partial profile edit. Nil fields are untouched.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// UserService owns account CRUD.
type UserService struct {
	DB *gorm.DB
}

// List returns all accounts, newest first.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	out, err := repo.ListUsers(ctx, s.DB)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list users", err)
	}
	return out, nil
}

// Get fetches a single account by ID.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load user", err)
	}
	return u, nil
}

// Update applies a partial profile edit and returns the fresh row.
func (s *UserService) Update(ctx context.Context, id string, upd UserUpdate) (*domain.User, error) {
	updates := map[string]any{}
	if upd.Username != nil {
		name := strings.TrimSpace(*upd.Username)
		if name == "" {
			return nil, apperr.BadRequest("username cannot be empty")
		}
		updates["username"] = name
	}
	if upd.Email != nil {
		email := NormalizeEmail(*upd.Email)
		if email == "" {
			return nil, apperr.BadRequest("email cannot be empty")
		}
		updates["email"] = email
	}
	if upd.Phone != nil {
		updates["phone"] = strings.TrimSpace(*upd.Phone)
	}
	if len(updates) == 0 {
		return nil, apperr.BadRequest("no fields to update")
	}

	u, err := repo.UpdateUser(ctx, s.DB, id, updates)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, apperr.NotFound("user not found")
		case errors.Is(err, repo.ErrDuplicate):
			return nil, apperr.Conflict("email already in use")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "update user", err)
	}
	return u, nil
}

// UpdateRole sets an account's role to one of the recognized values.
func (s *UserService) UpdateRole(ctx context.Context, id, role string) (*domain.User, error) {
	switch role {
	case domain.RoleUser, domain.RoleAdmin, domain.RoleSuperAdmin:
	default:
		return nil, apperr.BadRequest("unknown role")
	}

	u, err := repo.UpdateUser(ctx, s.DB, id, map[string]any{"role": role})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "update role", err)
	}
	return u, nil
}

// Delete soft-deletes an account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := repo.DeleteUser(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Wrap(apperr.KindInternal, "delete user", err)
	}
	return nil
}
