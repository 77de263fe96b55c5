// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ChatHistory model: one JSON document of turns per user.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/certivo/chatdesk-backend/internal/domain"
)

// GetHistory fetches the single history row for userID, or ErrNotFound.
func GetHistory(ctx context.Context, db *gorm.DB, userID string) (*domain.ChatHistory, error) {
	var h domain.ChatHistory
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// AppendHistory appends turns to the user's history document, creating the
// row on first use. The read-modify-write runs in a transaction so two
// concurrent appends cannot drop each other's turns.
func AppendHistory(ctx context.Context, db *gorm.DB, userID string, turns []domain.ChatMessage) (*domain.ChatHistory, error) {
	var out *domain.ChatHistory
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var h domain.ChatHistory
		err := tx.Where("user_id = ?", userID).First(&h).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			now := time.Now().UTC()
			h = domain.ChatHistory{
				ID:        uuid.NewString(),
				UserID:    userID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := h.SetTurns(turns); err != nil {
				return err
			}
			if err := tx.Create(&h).Error; err != nil {
				return err
			}
			out = &h
			return nil
		case err != nil:
			return err
		}

		existing, err := h.Turns()
		if err != nil {
			return err
		}
		if err := h.SetTurns(append(existing, turns...)); err != nil {
			return err
		}
		h.UpdatedAt = time.Now().UTC()
		if err := tx.Model(&domain.ChatHistory{}).
			Where("id = ?", h.ID).
			Updates(map[string]any{"messages": h.Messages, "updated_at": h.UpdatedAt}).Error; err != nil {
			return err
		}
		out = &h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteHistory removes the user's history row. Returns ErrNotFound if the
// user has never chatted.
func DeleteHistory(ctx context.Context, db *gorm.DB, userID string) error {
	res := db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.ChatHistory{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
