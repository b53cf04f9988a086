package videos

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime"
	"strings"

	"github.com/killallgit/depthtrack-api/internal/models"
	"github.com/killallgit/depthtrack-api/internal/services/media"
	apperrors "github.com/killallgit/depthtrack-api/pkg/errors"
	"github.com/killallgit/depthtrack-api/pkg/logger"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit from overflowing
	MaxPage = math.MaxInt / MaxLimit
)

// sortColumns maps accepted sort fields to database columns
var sortColumns = map[string]string{
	"id":            "id",
	"originalName":  "original_name",
	"original_name": "original_name",
	"mimeType":      "mime_type",
	"mime_type":     "mime_type",
	"size":          "size_bytes",
	"size_bytes":    "size_bytes",
	"depthState":    "depth_state",
	"depth_state":   "depth_state",
	"createdAt":     "created_at",
	"created_at":    "created_at",
	"updatedAt":     "updated_at",
	"updated_at":    "updated_at",
}

// Options configures upload acceptance
type Options struct {
	AllowedMimeTypes []string
	MaxUploadSize    int64
}

type service struct {
	repo    Repository
	store   media.Store
	allowed map[string]struct{}
	maxSize int64
	log     *logger.Logger
}

// NewService creates the asset service
func NewService(repo Repository, store media.Store, opts Options, log *logger.Logger) Service {
	allowed := make(map[string]struct{}, len(opts.AllowedMimeTypes))
	for _, mt := range opts.AllowedMimeTypes {
		allowed[strings.ToLower(strings.TrimSpace(mt))] = struct{}{}
	}
	return &service{
		repo:    repo,
		store:   store,
		allowed: allowed,
		maxSize: opts.MaxUploadSize,
		log:     log.With("service", "videos"),
	}
}

func (s *service) CreateAsset(ctx context.Context, upload Upload, description *string) (*models.VideoAsset, error) {
	if upload.Reader == nil {
		return nil, apperrors.InvalidInput(apperrors.ConstraintMissingField, "video file is required")
	}

	mimeType, _, err := mime.ParseMediaType(upload.MimeType)
	if err != nil {
		mimeType = strings.ToLower(strings.TrimSpace(upload.MimeType))
	}
	if _, ok := s.allowed[mimeType]; !ok {
		return nil, apperrors.InvalidInput(apperrors.ConstraintInvalidMediaType, "only video files are allowed").
			WithDetail("mime_type", upload.MimeType)
	}
	if s.maxSize > 0 && upload.Size > s.maxSize {
		return nil, apperrors.InvalidInput(apperrors.ConstraintFileTooLarge, "video exceeds the upload size limit").
			WithDetail("max_bytes", s.maxSize)
	}

	stored, err := s.store.Store(ctx, upload.Reader, upload.Filename)
	if err != nil {
		return nil, apperrors.StorageError("store upload", err)
	}

	video := &models.VideoAsset{
		StoredFilename: stored.Name,
		OriginalName:   upload.Filename,
		MimeType:       mimeType,
		SizeBytes:      stored.Size,
		Description:    description,
		DepthState:     models.DepthStateIdle,
	}
	if err := s.repo.Create(ctx, video); err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), stored.Name); delErr != nil {
			s.log.Warn("failed to remove upload after insert failure", "file", stored.Name, "error", delErr)
		}
		return nil, apperrors.StorageError("create video", err)
	}

	s.log.Info("video uploaded", "video_id", video.ID, "file", stored.Name, "size", stored.Size)
	return video, nil
}

// resolveList validates caller options before anything touches the database
func resolveList(opts ListOptions) (ListQuery, int, int, error) {
	page := opts.Page
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	limit := opts.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	field := opts.SortColumn
	if field == "" {
		field = "createdAt"
	}
	column, ok := sortColumns[field]
	if !ok {
		return ListQuery{}, 0, 0, apperrors.InvalidInput(apperrors.ConstraintInvalidSortField, "unsupported sort field").
			WithDetail("field", field)
	}

	desc := true
	switch strings.ToUpper(opts.SortDirection) {
	case "", "DESC":
	case "ASC":
		desc = false
	default:
		return ListQuery{}, 0, 0, apperrors.InvalidInput(apperrors.ConstraintInvalidSortDirection, "sort direction must be ASC or DESC").
			WithDetail("direction", opts.SortDirection)
	}

	return ListQuery{
		Offset:  (page - 1) * limit,
		Limit:   limit,
		Search:  strings.TrimSpace(opts.Search),
		OrderBy: column,
		Desc:    desc,
	}, page, limit, nil
}

func (s *service) ListAssets(ctx context.Context, opts ListOptions) (*ListResult, error) {
	q, page, limit, err := resolveList(opts)
	if err != nil {
		return nil, err
	}

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, apperrors.StorageError("list videos", err)
	}
	if items == nil {
		items = []models.VideoAsset{}
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		Page:       page,
		Limit:      limit,
	}, nil
}

func (s *service) GetAsset(ctx context.Context, id uint) (*models.VideoAsset, error) {
	video, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, translate(err, id, "get video")
	}
	return video, nil
}

func validatePatch(patch *AnnotationPatch) error {
	if patch.TrackedObjects != nil {
		if *patch.TrackedObjects == nil {
			empty := []models.TrackedObject{}
			patch.TrackedObjects = &empty
		}
		if err := models.ValidateTrackedObjects(*patch.TrackedObjects); err != nil {
			return apperrors.InvalidInput(apperrors.ConstraintInvalidAnnotation, err.Error())
		}
	}
	if patch.CalibrationPoints != nil {
		if err := models.ValidateCalibrationPoints(patch.CalibrationPoints); err != nil {
			return apperrors.InvalidInput(apperrors.ConstraintInvalidAnnotation, err.Error())
		}
	}
	if patch.CompiledTracking != nil && !json.Valid(patch.CompiledTracking) {
		return apperrors.InvalidInput(apperrors.ConstraintInvalidAnnotation, "compiledTracking must be valid JSON")
	}
	return nil
}

func (s *service) UpdateAnnotation(ctx context.Context, id uint, patch AnnotationPatch) (*models.VideoAsset, error) {
	if err := validatePatch(&patch); err != nil {
		return nil, err
	}

	if !patch.IsEmpty() {
		if err := s.repo.UpdateAnnotation(ctx, id, patch); err != nil {
			return nil, translate(err, id, "update annotation")
		}
	}

	return s.GetAsset(ctx, id)
}

func (s *service) ReplaceTrackedObjects(ctx context.Context, id uint, objects []models.TrackedObject) (*models.VideoAsset, error) {
	return s.UpdateAnnotation(ctx, id, AnnotationPatch{TrackedObjects: &objects})
}

func (s *service) SetCalibration(ctx context.Context, id uint, points json.RawMessage) (*models.VideoAsset, error) {
	if points == nil {
		points = json.RawMessage("[]")
	}
	return s.UpdateAnnotation(ctx, id, AnnotationPatch{CalibrationPoints: points})
}

func (s *service) SetCompiledTracking(ctx context.Context, id uint, data json.RawMessage) (*models.VideoAsset, error) {
	if data == nil {
		data = json.RawMessage("null")
	}
	return s.UpdateAnnotation(ctx, id, AnnotationPatch{CompiledTracking: data})
}

// DeleteAsset removes the original file first; if that fails the record is kept.
// The depth file is removed best-effort after the record is gone.
func (s *service) DeleteAsset(ctx context.Context, id uint) error {
	video, err := s.repo.Get(ctx, id)
	if err != nil {
		return translate(err, id, "get video")
	}

	if err := s.store.Delete(ctx, video.StoredFilename); err != nil {
		return apperrors.StorageError("delete original", err).
			WithDetail("video_id", id).
			WithDetail("file", video.StoredFilename)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return translate(err, id, "delete video")
	}

	if video.DepthFilename != "" {
		if err := s.store.Delete(ctx, video.DepthFilename); err != nil {
			s.log.Warn("failed to remove depth file", "video_id", id, "file", video.DepthFilename, "error", err)
		}
	}

	s.log.Info("video deleted", "video_id", id)
	return nil
}

func translate(err error, id uint, op string) error {
	if errors.Is(err, ErrVideoNotFound) {
		return apperrors.NotFound("video", id)
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.StorageError(op, err)
}
