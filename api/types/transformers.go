package types

import (
	"encoding/json"
	"fmt"

	"github.com/killallgit/depthtrack-api/internal/models"
	"github.com/killallgit/depthtrack-api/internal/services/videos"
)

// ToVideoResponse converts an asset for the API
func ToVideoResponse(v *models.VideoAsset) VideoResponse {
	ann := v.Annotation()

	resp := VideoResponse{
		ID:           v.ID,
		Filename:     v.StoredFilename,
		OriginalName: v.OriginalName,
		MimeType:     v.MimeType,
		Size:         v.SizeBytes,
		Description:  v.Description,
		FileURL:      fmt.Sprintf("/api/v1/videos/%d/file", v.ID),

		DepthState:            v.DepthState,
		DepthError:            v.DepthError,
		DepthJobID:            v.DepthJobID,
		DepthStartedAt:        v.DepthStartedAt,
		DepthFinishedAt:       v.DepthFinishedAt,
		IsGeneratingDepth:     v.DepthState == models.DepthStateGenerating,
		DepthGenerationFailed: v.DepthState == models.DepthStateFailed,

		AnnotationVersion: ann.SchemaVersion,
		TrackingData:      TrackingData{Objects: ann.TrackedObjects},
		CalibrationPoints: json.RawMessage(ann.CalibrationPoints),
		CompiledTracking:  json.RawMessage("null"),

		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
	if ann.CompiledTracking != nil {
		resp.CompiledTracking = json.RawMessage(ann.CompiledTracking)
	}
	if v.HasDepth() {
		name := v.DepthFilename
		resp.DepthFilename = &name
		resp.DepthURL = fmt.Sprintf("/api/v1/videos/%d/depth", v.ID)
	}
	return resp
}

// ToVideoListResponse converts a page of assets
func ToVideoListResponse(res *videos.ListResult) VideoListResponse {
	items := make([]VideoResponse, 0, len(res.Items))
	for i := range res.Items {
		items = append(items, ToVideoResponse(&res.Items[i]))
	}
	return VideoListResponse{
		Videos:     items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	}
}

// ToAnnotationPatch converts an update request. A JSON null is treated like an omitted field.
func (r UpdateVideoRequest) ToAnnotationPatch() videos.AnnotationPatch {
	patch := videos.AnnotationPatch{Description: r.Description}
	if r.TrackingData != nil {
		objects := r.TrackingData.Objects
		if objects == nil {
			objects = []models.TrackedObject{}
		}
		patch.TrackedObjects = &objects
	}
	if r.CalibrationPoints != nil && !isNull(*r.CalibrationPoints) {
		patch.CalibrationPoints = *r.CalibrationPoints
	}
	if r.CompiledTracking != nil && !isNull(*r.CompiledTracking) {
		patch.CompiledTracking = *r.CompiledTracking
	}
	return patch
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// ToDepthJobResponse converts a depth job row for the API
func ToDepthJobResponse(job *models.Job, videoID uint) DepthJobResponse {
	return DepthJobResponse{
		ID:          job.ID,
		VideoID:     videoID,
		Status:      string(job.Status),
		Progress:    job.Progress,
		Error:       job.Error,
		ErrorType:   job.ErrorType,
		ErrorCode:   job.ErrorCode,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
}
