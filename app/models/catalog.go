package models

import "time"

const (
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
)

// ToolType distinguishes per-profile extraction from single-URL extraction.
type ToolType string

const (
	ToolTypePage ToolType = "page"
	ToolTypeURL  ToolType = "url"
)

type Platform struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
	Image     string    `gorm:"type:varchar(255)" json:"image"`
	Visible   bool      `gorm:"default:true;index" json:"visible"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PlatformTool is one extraction offering of a platform, priced in gemas per result.
type PlatformTool struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PlatformID  uint      `gorm:"index;not null" json:"platform_id"`
	Name        string    `gorm:"type:varchar(150);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Type        ToolType  `gorm:"type:varchar(10);not null;default:'page'" json:"type" validate:"oneof=page url"`
	Price       int       `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	Visible     bool      `gorm:"default:true;index" json:"visible"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Plan is a purchasable credit package backed by a Stripe price.
type Plan struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(100);not null" json:"name"`
	Gemas         int       `gorm:"not null" json:"gemas"`
	Price         int64     `gorm:"not null" json:"price"`
	StripePriceID string    `gorm:"type:varchar(191);uniqueIndex" json:"stripe_price_id"`
	Visible       bool      `gorm:"default:true;index" json:"visible"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
