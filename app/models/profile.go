package models

import (
	"strings"
	"time"
)

// Profile is a scraped social account, unique per (username, platform).
type Profile struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"type:varchar(150);not null;uniqueIndex:ux_profiles_username_platform,priority:1" json:"username"`
	Platform       string    `gorm:"type:varchar(50);not null;uniqueIndex:ux_profiles_username_platform,priority:2" json:"platform"`
	PlatformID     uint      `gorm:"index" json:"platform_id"`
	FullName       string    `gorm:"type:varchar(255)" json:"full_name"`
	ProfilePicURL  string    `gorm:"type:text" json:"profile_pic_url"`
	FollowersCount int64     `gorm:"default:0" json:"followers_count"`
	FollowsCount   int64     `gorm:"default:0" json:"follows_count"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NormalizeUsername strips the leading "@" and surrounding whitespace users
// tend to paste along with a handle.
func NormalizeUsername(raw string) string {
	u := strings.TrimSpace(raw)
	u = strings.TrimPrefix(u, "@")
	return strings.ToLower(strings.TrimSpace(u))
}

// DisplayName prefers the full name and falls back to the username.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.FullName != "" {
		return p.FullName
	}
	return p.Username
}
