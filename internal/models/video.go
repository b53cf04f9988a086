package models

import (
	"time"

	"gorm.io/datatypes"
)

// DepthState tracks the depth generation lifecycle of a video
type DepthState string

const (
	DepthStateIdle       DepthState = "idle"
	DepthStateGenerating DepthState = "generating"
	DepthStateSucceeded  DepthState = "succeeded"
	DepthStateFailed     DepthState = "failed"
)

// Valid reports whether s is a known depth state
func (s DepthState) Valid() bool {
	switch s {
	case DepthStateIdle, DepthStateGenerating, DepthStateSucceeded, DepthStateFailed:
		return true
	}
	return false
}

// CanStartGeneration reports whether a new depth run may begin from s
func (s DepthState) CanStartGeneration() bool {
	return s.Valid() && s != DepthStateGenerating
}

// VideoAsset is one uploaded video with its depth output and annotations.
// Annotation parts live in separate JSON columns so each can be updated on its own.
type VideoAsset struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	StoredFilename string  `json:"stored_filename" gorm:"not null;uniqueIndex"`
	OriginalName   string  `json:"original_name" gorm:"not null;index"`
	MimeType       string  `json:"mime_type" gorm:"not null"`
	SizeBytes      int64   `json:"size_bytes" gorm:"not null"`
	Description    *string `json:"description,omitempty"`

	DepthFilename   string     `json:"depth_filename,omitempty"`
	DepthState      DepthState `json:"depth_state" gorm:"not null;default:'idle';index"`
	DepthError      string     `json:"depth_error,omitempty"`
	DepthJobID      *uint      `json:"depth_job_id,omitempty"`
	DepthStartedAt  *time.Time `json:"depth_started_at,omitempty"`
	DepthFinishedAt *time.Time `json:"depth_finished_at,omitempty"`

	AnnotationVersion int                                 `json:"annotation_version" gorm:"not null;default:1"`
	TrackedObjects    datatypes.JSONType[[]TrackedObject] `json:"tracked_objects"`
	CalibrationPoints datatypes.JSON                      `json:"calibration_points"`
	CompiledTracking  datatypes.JSON                      `json:"compiled_tracking"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (VideoAsset) TableName() string {
	return "video_assets"
}

// HasDepth reports whether a derived depth video is attached
func (v *VideoAsset) HasDepth() bool {
	return v.DepthFilename != ""
}

// Annotation returns the typed annotation payload stored on the asset
func (v *VideoAsset) Annotation() Annotation {
	objects := v.TrackedObjects.Data()
	if objects == nil {
		objects = []TrackedObject{}
	}
	calibration := v.CalibrationPoints
	if len(calibration) == 0 {
		calibration = datatypes.JSON(emptyJSONArray)
	}
	var compiled datatypes.JSON
	if len(v.CompiledTracking) > 0 {
		compiled = v.CompiledTracking
	}
	return Annotation{
		SchemaVersion:     v.AnnotationVersion,
		TrackedObjects:    objects,
		CalibrationPoints: calibration,
		CompiledTracking:  compiled,
	}
}
