// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Escalation
// model: append-only records of low-confidence answers.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/certivo/chatdesk-backend/internal/domain"
)

// CreateEscalation inserts a new escalation row.
func CreateEscalation(ctx context.Context, db *gorm.DB, query, userEmail string, confidence *float64, reason string) (*domain.Escalation, error) {
	e := &domain.Escalation{
		ID:         uuid.NewString(),
		Query:      query,
		UserEmail:  userEmail,
		Confidence: confidence,
		Reason:     reason,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// CountEscalations returns the total number of escalation rows.
func CountEscalations(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Escalation{}).Count(&total).Error
	return total, err
}

// ListEscalationsPage returns a paginated slice ordered by creation time
// descending (newest first). The caller computes offset and limit.
func ListEscalationsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Escalation, error) {
	var out []domain.Escalation
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
