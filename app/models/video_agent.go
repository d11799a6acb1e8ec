package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AgentStatus tracks one AI sub-result. It moves false -> progress -> complete
// and never back.
type AgentStatus string

const (
	AgentStatusFalse    AgentStatus = "false"
	AgentStatusProgress AgentStatus = "progress"
	AgentStatusComplete AgentStatus = "complete"
)

func (s AgentStatus) rank() int {
	switch s {
	case AgentStatusProgress:
		return 1
	case AgentStatusComplete:
		return 2
	default:
		return 0
	}
}

// Valid reports whether s is one of the three known states.
func (s AgentStatus) Valid() bool {
	return s == AgentStatusFalse || s == AgentStatusProgress || s == AgentStatusComplete
}

// CanAdvanceTo allows exactly one step forward.
func (s AgentStatus) CanAdvanceTo(next AgentStatus) bool {
	if !next.Valid() {
		return false
	}
	return next.rank() == s.rank()+1
}

// UnmarshalJSON accepts the literal boolean false the pipeline sometimes sends.
func (s *AgentStatus) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("false")) || bytes.Equal(data, []byte("null")) {
		*s = AgentStatusFalse
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("agent status: %w", err)
	}
	st := AgentStatus(raw)
	if raw == "" {
		st = AgentStatusFalse
	}
	if !st.Valid() {
		return fmt.Errorf("agent status: unknown value %q", raw)
	}
	*s = st
	return nil
}

// AgentResult is the JSON payload of one sub-result column.
type AgentResult struct {
	Status  AgentStatus `json:"status"`
	Content string      `json:"content,omitempty"`
}

func (r *AgentResult) Scan(value interface{}) error {
	out := AgentResult{Status: AgentStatusFalse}
	if err := scanJSON(value, &out); err != nil {
		return err
	}
	if out.Status == "" {
		out.Status = AgentStatusFalse
	}
	*r = out
	return nil
}

func (r AgentResult) Value() (driver.Value, error) {
	if r.Status == "" {
		r.Status = AgentStatusFalse
	}
	return valueJSON(r)
}

func (AgentResult) GormDataType() string {
	return "json"
}

// Agent sub-result field names accepted by the pipeline.
const (
	AgentFieldAnalysis   = "analysis"
	AgentFieldSimplified = "simplified"
	AgentFieldReply      = "reply"
)

type VideoAgent struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	VideoID    uint        `gorm:"uniqueIndex;not null" json:"video_id"`
	Analysis   AgentResult `gorm:"type:json" json:"analysis"`
	Simplified AgentResult `gorm:"type:json" json:"simplified"`
	Reply      AgentResult `gorm:"type:json" json:"reply"`
	Business   string      `gorm:"type:text" json:"business"`
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewVideoAgent is the agent row created with a freshly ingested video.
func NewVideoAgent(videoID uint) *VideoAgent {
	return &VideoAgent{
		VideoID:    videoID,
		Analysis:   AgentResult{Status: AgentStatusProgress},
		Simplified: AgentResult{Status: AgentStatusFalse},
		Reply:      AgentResult{Status: AgentStatusFalse},
	}
}

// Field returns a pointer to the named sub-result, or nil.
func (a *VideoAgent) Field(name string) *AgentResult {
	switch name {
	case AgentFieldAnalysis:
		return &a.Analysis
	case AgentFieldSimplified:
		return &a.Simplified
	case AgentFieldReply:
		return &a.Reply
	}
	return nil
}
