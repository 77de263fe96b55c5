// Package handlers provides HTTP handler implementations for the public API.
//
// This file declares the service contracts the handlers depend on and the
// wiring type that groups all endpoints. Handlers are transport-thin: they
// validate input, call application services, and translate results into HTTP
// responses.
package handlers

import (
	"context"

	"github.com/certivo/chatdesk-backend/internal/domain"
	"github.com/certivo/chatdesk-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AuthService defines the credential and token operations consumed by the
// auth endpoints.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// Register creates an account and returns it with a login token.
	Register(ctx context.Context, username, email, phone, password string) (*domain.User, string, error)
	// Login verifies credentials and returns the account with a login token.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	// ForgotPassword issues a short-lived password-reset token.
	ForgotPassword(ctx context.Context, email string) (string, error)
	// ResetPassword verifies a reset token and replaces the password.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// UserService defines account CRUD operations consumed by the user endpoints.
type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, upd services.UserUpdate) (*domain.User, error)
	UpdateRole(ctx context.Context, id, role string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// ChatService defines the chat-proxy operations consumed by the chat
// endpoints.
type ChatService interface {
	// CreateChat runs one chat turn and returns the normalized result.
	CreateChat(ctx context.Context, userID, userEmail, message string) (*services.ChatResult, error)
	// GetHistory returns the caller's stored turns.
	GetHistory(ctx context.Context, userID string) ([]domain.ChatMessage, error)
	// ClearHistory deletes the caller's stored turns.
	ClearHistory(ctx context.Context, userID string) error
}

// LeadService defines lead capture and assignment operations.
type LeadService interface {
	Create(ctx context.Context, email, query string) (*domain.Lead, error)
	ListPage(ctx context.Context, page, limit int) ([]domain.Lead, int64, error)
	Assign(ctx context.Context, leadID, assigneeID string) (*domain.Lead, error)
}

// EscalationService lists escalation records for the admin portal.
type EscalationService interface {
	ListPage(ctx context.Context, page, limit int) ([]domain.Escalation, int64, error)
}

//
// Handler wiring
//

// IdempotencyRecorder persists a completed (userID, Idempotency-Key) pair so
// later retries can be detected and replayed. Recording is best-effort; the
// chat answer is never withheld over a failed write.
type IdempotencyRecorder func(ctx context.Context, userID, key string) error

// Handlers groups the HTTP endpoints for auth, users, chat, leads, and
// escalations. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	authSvc AuthService
	userSvc UserService
	chatSvc ChatService
	leadSvc LeadService
	escSvc  EscalationService

	// RecordIdempotency stores a served chat turn's retry key. Nil disables
	// replay recording.
	RecordIdempotency IdempotencyRecorder
}

// New constructs and returns a Handlers instance bound to the given services.
func New(authSvc AuthService, userSvc UserService, chatSvc ChatService, leadSvc LeadService, escSvc EscalationService) *Handlers {
	return &Handlers{
		authSvc: authSvc,
		userSvc: userSvc,
		chatSvc: chatSvc,
		leadSvc: leadSvc,
		escSvc:  escSvc,
	}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func paginate(page, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}
