package types

import (
	"encoding/json"
	"time"

	"github.com/killallgit/depthtrack-api/internal/models"
)

// Status constants for API responses
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusAccepted = "accepted"
	StatusConflict = "conflict"
)

// ErrorResponse for detailed error information
type ErrorResponse struct {
	Status  string      `json:"status" example:"error"`
	Message string      `json:"message" example:"video not found"`
	Error   string      `json:"error,omitempty" example:"NOT_FOUND"` // Error code
	Details interface{} `json:"details,omitempty"`
}

// TrackingData wraps the tracked objects the way the frontend sends them
type TrackingData struct {
	Objects []models.TrackedObject `json:"objects"`
}

// VideoResponse is the public shape of a video asset
type VideoResponse struct {
	ID            uint    `json:"id" example:"1"`
	Filename      string  `json:"filename" example:"video-3f1c2a.mp4"`
	OriginalName  string  `json:"originalName" example:"skate.mp4"`
	MimeType      string  `json:"mimeType" example:"video/mp4"`
	Size          int64   `json:"size" example:"10485760"`
	Description   *string `json:"description"`
	FileURL       string  `json:"fileUrl" example:"/api/v1/videos/1/file"`
	DepthFilename *string `json:"depthFilename"`
	DepthURL      string  `json:"depthUrl,omitempty" example:"/api/v1/videos/1/depth"`

	DepthState            models.DepthState `json:"depthState" example:"idle"`
	DepthError            string            `json:"depthError,omitempty"`
	DepthJobID            *uint             `json:"depthJobId,omitempty"`
	DepthStartedAt        *time.Time        `json:"depthStartedAt,omitempty"`
	DepthFinishedAt       *time.Time        `json:"depthFinishedAt,omitempty"`
	IsGeneratingDepth     bool              `json:"isGeneratingDepth"`
	DepthGenerationFailed bool              `json:"depthGenerationFailed"`

	AnnotationVersion int             `json:"annotationVersion" example:"1"`
	TrackingData      TrackingData    `json:"trackingData"`
	CalibrationPoints json.RawMessage `json:"calibrationPoints" swaggertype:"array,object"`
	CompiledTracking  json.RawMessage `json:"compiledTracking" swaggertype:"object"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VideoListResponse is one page of videos
type VideoListResponse struct {
	Videos     []VideoResponse `json:"videos"`
	Total      int64           `json:"total" example:"42"`
	Page       int             `json:"page" example:"1"`
	Limit      int             `json:"limit" example:"10"`
	TotalPages int             `json:"totalPages" example:"5"`
}

// UpdateVideoRequest carries a partial annotation update. Omitted or null fields are left unchanged.
type UpdateVideoRequest struct {
	TrackingData      *TrackingData    `json:"trackingData,omitempty"`
	CalibrationPoints *json.RawMessage `json:"calibrationPoints,omitempty" swaggertype:"array,object"`
	CompiledTracking  *json.RawMessage `json:"compiledTracking,omitempty" swaggertype:"object"`
	Description       *string          `json:"description,omitempty"`
}

// GenerateDepthResponse acknowledges a depth generation request
type GenerateDepthResponse struct {
	Status  string `json:"status" example:"accepted"`
	Message string `json:"message" example:"Depth generation started"`
	VideoID uint   `json:"videoId" example:"1"`
	JobID   uint   `json:"jobId,omitempty" example:"7"`
}

// DepthJobResponse reports the job behind a video's current or last depth run
type DepthJobResponse struct {
	ID          uint       `json:"id" example:"7"`
	VideoID     uint       `json:"videoId" example:"1"`
	Status      string     `json:"status" example:"processing"`
	Progress    int        `json:"progress" example:"60"`
	Error       string     `json:"error,omitempty"`
	ErrorType   string     `json:"errorType,omitempty" example:"inference"`
	ErrorCode   string     `json:"errorCode,omitempty" example:"inference_failed"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message" example:"Video deleted"`
}
