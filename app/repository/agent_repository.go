package repository

import (
	"context"

	"github.com/trendhack/dashboard/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type agentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates a video agent repository instance
func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &agentRepository{db: db}
}

func (r *agentRepository) GetByID(ctx context.Context, id uint) (*models.VideoAgent, error) {
	var agent models.VideoAgent
	err := r.db.WithContext(ctx).First(&agent, id).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) GetByVideoID(ctx context.Context, videoID uint) (*models.VideoAgent, error) {
	var agent models.VideoAgent
	err := r.db.WithContext(ctx).Where("video_id = ?", videoID).First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// Mutate locks the agent row, lets fn change it and stores the result in the
// same transaction. An error from fn rolls back and is returned unchanged.
func (r *agentRepository) Mutate(ctx context.Context, id uint, fn func(agent *models.VideoAgent) error) (*models.VideoAgent, error) {
	var agent models.VideoAgent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&agent, id).Error; err != nil {
			return err
		}
		if err := fn(&agent); err != nil {
			return err
		}
		return tx.Model(&agent).
			Select("analysis", "simplified", "reply", "business").
			Updates(&agent).Error
	})
	if err != nil {
		return nil, err
	}
	return &agent, nil
}
