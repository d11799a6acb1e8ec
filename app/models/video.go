package models

import (
	"fmt"
	"strings"
	"time"
)

// Video is one content item produced by an extraction request.
type Video struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	RequestID        uint       `gorm:"index;not null" json:"request_id"`
	ProfileID        uint       `gorm:"index" json:"profile_id"`
	Platform         string     `gorm:"type:varchar(50)" json:"platform"`
	Username         string     `gorm:"type:varchar(150)" json:"username"`
	Caption          string     `gorm:"type:text" json:"caption"`
	URL              string     `gorm:"type:text" json:"url"`
	VideoURL         string     `gorm:"type:text" json:"video_url"`
	ThumbnailURL     string     `gorm:"type:text" json:"thumbnail_url"`
	ViewsCount       int64      `gorm:"default:0" json:"views_count"`
	LikesCount       int64      `gorm:"default:0" json:"likes_count"`
	CommentsCount    int64      `gorm:"default:0" json:"comments_count"`
	Duration         float64    `gorm:"default:0" json:"duration"`
	DimensionsWidth  int        `gorm:"default:0" json:"dimensions_width"`
	DimensionsHeight int        `gorm:"default:0" json:"dimensions_height"`
	IsSponsored      bool       `gorm:"default:false" json:"is_sponsored"`
	Type             string     `gorm:"type:varchar(50)" json:"type"`
	PublishedAt      *time.Time `gorm:"type:timestamp;default:null" json:"published_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

// Title is the first line of the caption.
func (v *Video) Title() string {
	return firstLine(v.Caption)
}

// PrimaryVideoURL is the first line of the video_url column; some scrapers
// put several alternatives separated by newlines.
func (v *Video) PrimaryVideoURL() string {
	return firstLine(v.VideoURL)
}

// Dimensions renders "W x H", or "" when either side is unknown.
func (v *Video) Dimensions() string {
	if v.DimensionsWidth <= 0 || v.DimensionsHeight <= 0 {
		return ""
	}
	return fmt.Sprintf("%d x %d", v.DimensionsWidth, v.DimensionsHeight)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// FormatDuration renders seconds as zero-padded mm:ss. Negative values render as 00:00.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
