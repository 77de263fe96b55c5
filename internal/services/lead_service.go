// Package services – LeadService and EscalationService
//
// Lead capture, listing, and assignment, plus paginated escalation listing
// for the admin portal. Pagination parameters are validated here so every
// caller gets the same rejection behavior.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/certivo/chatdesk-backend/internal/apperr"
	"github.com/certivo/chatdesk-backend/internal/domain"
	"github.com/certivo/chatdesk-backend/internal/repo"
)

// validatePage rejects non-positive pagination parameters and returns the
// resulting offset.
func validatePage(page, limit int) (offset int, err error) {
	if page < 1 || limit < 1 {
		return 0, apperr.BadRequest("page and limit must be positive")
	}
	return (page - 1) * limit, nil
}

// LeadService owns the lead lifecycle.
type LeadService struct {
	DB *gorm.DB
}

// Create captures a new lead in status "new".
func (s *LeadService) Create(ctx context.Context, email, query string) (*domain.Lead, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperr.BadRequest("email is required")
	}
	if query == "" {
		return nil, apperr.BadRequest("query is required")
	}
	l, err := repo.CreateLead(ctx, s.DB, email, query)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create lead", err)
	}
	return l, nil
}

// ListPage returns one page of leads plus the total count.
func (s *LeadService) ListPage(ctx context.Context, page, limit int) ([]domain.Lead, int64, error) {
	offset, err := validatePage(page, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := repo.CountLeads(ctx, s.DB)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "count leads", err)
	}
	if total == 0 {
		return []domain.Lead{}, 0, nil
	}
	items, err := repo.ListLeadsPage(ctx, s.DB, offset, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "list leads", err)
	}
	return items, total, nil
}

// Assign hands the lead to assigneeID and pins its status to "assigned",
// whatever state it was in before.
func (s *LeadService) Assign(ctx context.Context, leadID, assigneeID string) (*domain.Lead, error) {
	if assigneeID == "" {
		return nil, apperr.BadRequest("assignee is required")
	}
	l, err := repo.AssignLead(ctx, s.DB, leadID, assigneeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "assign lead", err)
	}
	return l, nil
}

// EscalationService reads the escalation log.
type EscalationService struct {
	DB *gorm.DB
}

// ListPage returns one page of escalations plus the total count, newest
// first.
func (s *EscalationService) ListPage(ctx context.Context, page, limit int) ([]domain.Escalation, int64, error) {
	offset, err := validatePage(page, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := repo.CountEscalations(ctx, s.DB)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "count escalations", err)
	}
	if total == 0 {
		return []domain.Escalation{}, 0, nil
	}
	items, err := repo.ListEscalationsPage(ctx, s.DB, offset, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "list escalations", err)
	}
	return items, total, nil
}
