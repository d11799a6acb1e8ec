package repository

import (
	"context"

	"github.com/trendhack/dashboard/app/models"
	"gorm.io/gorm"
)

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a prompt history repository instance
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, entry *models.PromptHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Latest returns the most recent prompts of a user
func (r *historyRepository) Latest(ctx context.Context, userID uint, limit int) ([]models.PromptHistory, error) {
	var entries []models.PromptHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
