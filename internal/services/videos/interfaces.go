package videos

import (
	"context"
	"encoding/json"
	"io"

	"github.com/killallgit/depthtrack-api/internal/models"
)

// Repository is the durable store for video assets.
// Every update writes only the columns it owns so concurrent edits to disjoint fields are never lost.
type Repository interface {
	Create(ctx context.Context, video *models.VideoAsset) error
	Get(ctx context.Context, id uint) (*models.VideoAsset, error)
	List(ctx context.Context, q ListQuery) ([]models.VideoAsset, int64, error)
	UpdateAnnotation(ctx context.Context, id uint, patch AnnotationPatch) error
	Delete(ctx context.Context, id uint) error

	// BeginDepthGeneration atomically moves a video into generating.
	// It returns ErrGenerationInProgress if a run is already active.
	BeginDepthGeneration(ctx context.Context, id uint) error
	AttachDepthJob(ctx context.Context, id, jobID uint) error
	// CompleteDepthGeneration records a new depth file and returns the one it replaced
	CompleteDepthGeneration(ctx context.Context, id uint, depthFilename string) (string, error)
	FailDepthGeneration(ctx context.Context, id uint, message string) error
	// FailOrphanedGenerations fails every generating video whose job is not in liveJobIDs
	FailOrphanedGenerations(ctx context.Context, message string, liveJobIDs []uint) (int64, error)
}

// Service is the boundary for asset CRUD and annotation edits
type Service interface {
	CreateAsset(ctx context.Context, upload Upload, description *string) (*models.VideoAsset, error)
	ListAssets(ctx context.Context, opts ListOptions) (*ListResult, error)
	GetAsset(ctx context.Context, id uint) (*models.VideoAsset, error)
	UpdateAnnotation(ctx context.Context, id uint, patch AnnotationPatch) (*models.VideoAsset, error)
	ReplaceTrackedObjects(ctx context.Context, id uint, objects []models.TrackedObject) (*models.VideoAsset, error)
	SetCalibration(ctx context.Context, id uint, points json.RawMessage) (*models.VideoAsset, error)
	SetCompiledTracking(ctx context.Context, id uint, data json.RawMessage) (*models.VideoAsset, error)
	DeleteAsset(ctx context.Context, id uint) error
}

// Upload is an incoming video file
type Upload struct {
	Filename string
	MimeType string
	Size     int64
	Reader   io.Reader
}

// AnnotationPatch carries the annotation fields to overwrite. Nil fields are left untouched.
type AnnotationPatch struct {
	TrackedObjects    *[]models.TrackedObject
	CalibrationPoints json.RawMessage
	CompiledTracking  json.RawMessage
	Description       *string
}

// IsEmpty reports whether the patch changes nothing
func (p AnnotationPatch) IsEmpty() bool {
	return p.TrackedObjects == nil && p.CalibrationPoints == nil && p.CompiledTracking == nil && p.Description == nil
}

func (p AnnotationPatch) touchesAnnotation() bool {
	return p.TrackedObjects != nil || p.CalibrationPoints != nil || p.CompiledTracking != nil
}

// ListOptions are the caller-facing list parameters
type ListOptions struct {
	Page          int
	Limit         int
	Search        string
	SortColumn    string
	SortDirection string
}

// ListQuery is a validated list request ready for the repository
type ListQuery struct {
	Offset  int
	Limit   int
	Search  string
	OrderBy string
	Desc    bool
}

// ListResult is one page of assets
type ListResult struct {
	Items      []models.VideoAsset
	Total      int64
	TotalPages int
	Page       int
	Limit      int
}
