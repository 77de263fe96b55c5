// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Lead model.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/certivo/chatdesk-backend/internal/domain"
)

// CreateLead inserts a new lead in status "new".
func CreateLead(ctx context.Context, db *gorm.DB, email, query string) (*domain.Lead, error) {
	now := time.Now().UTC()
	l := &domain.Lead{
		ID:        uuid.NewString(),
		Email:     email,
		Query:     query,
		Status:    domain.LeadStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

// GetLead fetches a lead by ID, or ErrNotFound if missing.
func GetLead(ctx context.Context, db *gorm.DB, id string) (*domain.Lead, error) {
	var l domain.Lead
	err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ListLeads returns all leads ordered by creation time descending.
func ListLeads(ctx context.Context, db *gorm.DB) ([]domain.Lead, error) {
	var out []domain.Lead
	err := db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

// CountLeads returns the total number of lead rows.
func CountLeads(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Lead{}).Count(&total).Error
	return total, err
}

// ListLeadsPage returns a paginated slice ordered by creation time
// descending. The caller computes offset and limit.
func ListLeadsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Lead, error) {
	var out []domain.Lead
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// AssignLead sets the assignee and forces the status to "assigned",
// regardless of the lead's prior state. Returns the fresh row, or
// ErrNotFound if the lead does not exist.
func AssignLead(ctx context.Context, db *gorm.DB, id, assigneeID string) (*domain.Lead, error) {
	res := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"assigned_to": assigneeID,
			"status":      domain.LeadStatusAssigned,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return GetLead(ctx, db, id)
}
