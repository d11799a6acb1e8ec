package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeRefreshMetrics JobType = "refresh_metrics"
	JobTypeMirrorMedia    JobType = "mirror_media"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// RefreshMetricsJobPayload names the user whose dashboard counters are recomputed
type RefreshMetricsJobPayload struct {
	UserID uint `json:"user_id"`
}

func (p RefreshMetricsJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"user_id": p.UserID,
	}
}

func RefreshMetricsJobPayloadFromMap(data map[string]interface{}) (*RefreshMetricsJobPayload, error) {
	var payload RefreshMetricsJobPayload
	err := fromMap(data, &payload)
	return &payload, err
}

// MirrorMediaJobPayload points at one avatar or thumbnail to copy into the bucket
type MirrorMediaJobPayload struct {
	Kind      string `json:"kind"`   // mediastore.KindProfile or KindVideo
	RowID     uint   `json:"row_id"` // profile or video id
	SourceURL string `json:"source_url"`
}

func (p MirrorMediaJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"kind":       p.Kind,
		"row_id":     p.RowID,
		"source_url": p.SourceURL,
	}
}

func MirrorMediaJobPayloadFromMap(data map[string]interface{}) (*MirrorMediaJobPayload, error) {
	var payload MirrorMediaJobPayload
	err := fromMap(data, &payload)
	return &payload, err
}

// fromMap round-trips a stored payload through JSON into its typed form
func fromMap(data map[string]interface{}, dest interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, dest)
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
