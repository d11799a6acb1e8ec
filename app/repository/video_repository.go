package repository

import (
	"context"

	"github.com/trendhack/dashboard/app/models"
	"gorm.io/gorm"
)

type videoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a video repository instance
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) GetByID(ctx context.Context, id uint) (*models.Video, error) {
	var video models.Video
	err := r.db.WithContext(ctx).First(&video, id).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) ListByRequest(ctx context.Context, requestID uint, offset, limit int) ([]models.Video, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Video{}).Where("request_id = ?", requestID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var videos []models.Video
	err := db.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&videos).Error
	return videos, total, err
}

// Totals sums the engagement counters of every video of a request
func (r *videoRepository) Totals(ctx context.Context, requestID uint) (*VideoTotals, error) {
	var totals VideoTotals
	err := r.db.WithContext(ctx).Model(&models.Video{}).
		Select("COUNT(*) AS count, " +
			"COALESCE(SUM(views_count), 0) AS total_views, " +
			"COALESCE(SUM(likes_count), 0) AS total_likes, " +
			"COALESCE(SUM(comments_count), 0) AS total_comments, " +
			"COALESCE(AVG(duration), 0) AS avg_duration").
		Where("request_id = ?", requestID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// CreateWithAgents inserts the videos and one agent row per video. IDs are
// written back into the given slice.
func (r *videoRepository) CreateWithAgents(ctx context.Context, videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&videos).Error; err != nil {
			return err
		}
		agents := make([]*models.VideoAgent, 0, len(videos))
		for _, v := range videos {
			agents = append(agents, models.NewVideoAgent(v.ID))
		}
		return tx.Create(&agents).Error
	})
}

func (r *videoRepository) UpdateThumbnail(ctx context.Context, id uint, url string) error {
	return r.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", id).Update("thumbnail_url", url).Error
}
