package repository

import (
	"context"

	"github.com/trendhack/dashboard/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a profile repository instance
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// FindOrCreate inserts the profile unless (username, platform) already exists
// and returns the stored row either way.
func (r *profileRepository) FindOrCreate(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "username"},
			{Name: "platform"},
		},
		DoNothing: true,
	}).Create(profile).Error; err != nil {
		return nil, err
	}

	var stored models.Profile
	if err := db.Where("username = ? AND platform = ?", profile.Username, profile.Platform).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).First(&profile, id).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) ByIDs(ctx context.Context, ids []uint) (map[uint]models.Profile, error) {
	out := make(map[uint]models.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []models.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

// Update applies a partial update and returns the refreshed row
func (r *profileRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (*models.Profile, error) {
	db := r.db.WithContext(ctx)
	if len(updates) > 0 {
		res := db.Model(&models.Profile{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return r.GetByID(ctx, id)
}

// ListUnmirrored returns profiles with an avatar that is not yet served from mirrorPrefix.
func (r *profileRepository) ListUnmirrored(ctx context.Context, mirrorPrefix string, limit int) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.WithContext(ctx).
		Where("profile_pic_url <> '' AND profile_pic_url NOT LIKE ?", mirrorPrefix+"%").
		Order("id ASC").
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}
