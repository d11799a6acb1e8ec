package repository

import (
	"context"

	"github.com/trendhack/dashboard/app/models"
	"gorm.io/gorm"
)

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a catalog repository instance
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// ListPlatforms returns the visible platforms ordered by name
func (r *catalogRepository) ListPlatforms(ctx context.Context) ([]models.Platform, error) {
	var platforms []models.Platform
	err := r.db.WithContext(ctx).Where("visible = ?", true).Order("name ASC").Find(&platforms).Error
	return platforms, err
}

func (r *catalogRepository) GetPlatform(ctx context.Context, id uint) (*models.Platform, error) {
	var platform models.Platform
	err := r.db.WithContext(ctx).First(&platform, id).Error
	if err != nil {
		return nil, err
	}
	return &platform, nil
}

// PlatformsByIDs resolves a set of ids in one query. Unknown ids are absent from the map.
func (r *catalogRepository) PlatformsByIDs(ctx context.Context, ids []uint) (map[uint]models.Platform, error) {
	out := make(map[uint]models.Platform, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var platforms []models.Platform
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&platforms).Error; err != nil {
		return nil, err
	}
	for _, p := range platforms {
		out[p.ID] = p
	}
	return out, nil
}

func (r *catalogRepository) PlatformsBySlugs(ctx context.Context, slugs []string) (map[string]models.Platform, error) {
	out := make(map[string]models.Platform, len(slugs))
	if len(slugs) == 0 {
		return out, nil
	}
	var platforms []models.Platform
	if err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&platforms).Error; err != nil {
		return nil, err
	}
	for _, p := range platforms {
		out[p.Slug] = p
	}
	return out, nil
}

// ListTools returns the visible tools of a platform
func (r *catalogRepository) ListTools(ctx context.Context, platformID uint) ([]models.PlatformTool, error) {
	var tools []models.PlatformTool
	err := r.db.WithContext(ctx).
		Where("platform_id = ? AND visible = ?", platformID, true).
		Order("id ASC").
		Find(&tools).Error
	return tools, err
}

func (r *catalogRepository) GetTool(ctx context.Context, id uint) (*models.PlatformTool, error) {
	var tool models.PlatformTool
	err := r.db.WithContext(ctx).First(&tool, id).Error
	if err != nil {
		return nil, err
	}
	return &tool, nil
}

func (r *catalogRepository) ToolsByIDs(ctx context.Context, ids []uint) (map[uint]models.PlatformTool, error) {
	out := make(map[uint]models.PlatformTool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var tools []models.PlatformTool
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tools).Error; err != nil {
		return nil, err
	}
	for _, t := range tools {
		out[t.ID] = t
	}
	return out, nil
}

// ListPlans returns the visible plans, cheapest first
func (r *catalogRepository) ListPlans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.WithContext(ctx).Where("visible = ?", true).Order("price ASC").Find(&plans).Error
	return plans, err
}

func (r *catalogRepository) GetPlan(ctx context.Context, id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *catalogRepository) PlansByIDs(ctx context.Context, ids []uint) (map[uint]models.Plan, error) {
	out := make(map[uint]models.Plan, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var plans []models.Plan
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&plans).Error; err != nil {
		return nil, err
	}
	for _, p := range plans {
		out[p.ID] = p
	}
	return out, nil
}
