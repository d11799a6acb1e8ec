package repository

import (
	"context"

	"github.com/trendhack/dashboard/app/models"
	"gorm.io/gorm"
)

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates an extraction request repository instance
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) GetByID(ctx context.Context, id uint) (*models.ExtractionRequest, error) {
	var req models.ExtractionRequest
	err := r.db.WithContext(ctx).First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetForUser only finds rows owned by userID
func (r *requestRepository) GetForUser(ctx context.Context, userID, id uint) (*models.ExtractionRequest, error) {
	var req models.ExtractionRequest
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByUser returns one page of a user's requests, newest first, and the total count
func (r *requestRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.ExtractionRequest, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.ExtractionRequest{}).Where("user_id = ?", userID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []models.ExtractionRequest
	err := db.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&requests).Error
	return requests, total, err
}

// ListPending returns requests still waiting for the pipeline, oldest first
func (r *requestRepository) ListPending(ctx context.Context, limit int) ([]models.ExtractionRequest, error) {
	var requests []models.ExtractionRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", models.RequestStatusSearching).
		Order("created_at ASC").Order("id ASC").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}

// UpdateStatus changes the status unless the request already reached a
// terminal state. It reports false when no row was eligible.
func (r *requestRepository) UpdateStatus(ctx context.Context, id uint, status int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ExtractionRequest{}).
		Where("id = ? AND status NOT IN ?", id, []int{models.RequestStatusComplete, models.RequestStatusEmpty}).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountByStatus groups a user's requests by status code
func (r *requestRepository) CountByStatus(ctx context.Context, userID uint) (map[int]int64, error) {
	var rows []struct {
		Status int
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.ExtractionRequest{}).
		Select("status, COUNT(*) AS total").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}
