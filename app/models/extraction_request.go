package models

import "time"

// Request status codes written by the extraction pipeline.
const (
	RequestStatusSearching = 1
	RequestStatusSaving    = 2
	RequestStatusAnalyzing = 3
	RequestStatusComplete  = 4
	RequestStatusEmpty     = 5
)

// ExtractionRequest is a paid job describing what social content to scrape.
type ExtractionRequest struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"index;not null" json:"user_id"`
	PlatformID      uint      `gorm:"index;not null" json:"platform_id"`
	ToolID          uint      `gorm:"index;not null" json:"tool_id"`
	ProfileIDs      IDList    `gorm:"type:json" json:"profile_ids"`
	Configuration   JSONMap   `gorm:"type:json" json:"configuration"`
	Period          string    `gorm:"type:varchar(50)" json:"period"`
	ExpectedResults int       `gorm:"default:0" json:"expected_results"`
	TargetURL       string    `gorm:"type:text" json:"target_url,omitempty"`
	Cost            int       `gorm:"not null;default:0" json:"cost"`
	Status          int       `gorm:"not null;default:1;index" json:"status"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the pipeline has finished with this request.
func (r *ExtractionRequest) IsTerminal() bool {
	return r.Status == RequestStatusComplete || r.Status == RequestStatusEmpty
}

// FirstProfileID returns the first target profile, or 0 for url requests.
func (r *ExtractionRequest) FirstProfileID() uint {
	if len(r.ProfileIDs) == 0 {
		return 0
	}
	return r.ProfileIDs[0]
}
