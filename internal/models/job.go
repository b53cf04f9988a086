package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus represents the status of a job in the queue
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	// JobStatusInterrupted marks a job whose process died while it was running
	JobStatusInterrupted JobStatus = "interrupted"
)

// JobType represents the type of job to be processed
type JobType string

const (
	JobTypeDepthGeneration JobType = "depth_generation"
)

// JobErrorType represents the category of error that occurred
type JobErrorType string

const (
	ErrorTypeInference JobErrorType = "inference" // depth inference service failed
	ErrorTypeTranscode JobErrorType = "transcode" // ffmpeg re-encode failed
	ErrorTypeStorage   JobErrorType = "storage"   // media store or database failed
	ErrorTypeNotFound  JobErrorType = "not_found" // video vanished before or during the run
	ErrorTypeSystem    JobErrorType = "system"
)

// StructuredJobError represents a structured error with classification information
type StructuredJobError struct {
	Type     JobErrorType
	Code     string
	Message  string
	Details  string
	Original error
}

func (e *StructuredJobError) Error() string {
	return e.Message
}

func (e *StructuredJobError) Unwrap() error {
	return e.Original
}

// NewJobError creates a classified job error
func NewJobError(errType JobErrorType, code, message string, originalErr error) *StructuredJobError {
	details := ""
	if originalErr != nil {
		details = originalErr.Error()
	}
	return &StructuredJobError{
		Type:     errType,
		Code:     code,
		Message:  message,
		Details:  details,
		Original: originalErr,
	}
}

// Job represents a background job in the queue
type Job struct {
	gorm.Model
	Type        JobType           `json:"type" gorm:"not null;index:idx_jobs_type_status"`
	Status      JobStatus         `json:"status" gorm:"default:'pending';index:idx_jobs_type_status;index:idx_jobs_status_priority"`
	Payload     datatypes.JSONMap `json:"payload"`
	Priority    int               `json:"priority" gorm:"default:0;index:idx_jobs_status_priority"`
	Progress    int               `json:"progress" gorm:"default:0"` // 0-100
	StartedAt   *time.Time        `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at"`
	Error       string            `json:"error,omitempty"`
	Result      datatypes.JSONMap `json:"result,omitempty"`
	WorkerID    string            `json:"worker_id,omitempty"`

	ErrorType    string `json:"error_type,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorDetails string `json:"error_details,omitempty"`

	CreatedBy string `json:"created_by,omitempty"`
}

// CanProcess returns true if the job is ready to be processed
func (j *Job) CanProcess() bool {
	return j.Status == JobStatusPending
}

// IsTerminal returns true if the job will not run again
func (j *Job) IsTerminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusInterrupted:
		return true
	}
	return false
}

// GetPayloadValue safely retrieves a value from the payload
func (j *Job) GetPayloadValue(key string) (interface{}, bool) {
	if j.Payload == nil {
		return nil, false
	}
	val, ok := j.Payload[key]
	return val, ok
}

// GetPayloadUint retrieves an unsigned id from the payload
func (j *Job) GetPayloadUint(key string) (uint, bool) {
	val, ok := j.GetPayloadValue(key)
	if !ok {
		return 0, false
	}

	// JSON numbers decode as float64
	switch v := val.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 || v != float64(uint(v)) {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}

// TableName specifies the table name for GORM
func (Job) TableName() string {
	return "jobs"
}
