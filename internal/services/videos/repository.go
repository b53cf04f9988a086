package videos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/killallgit/depthtrack-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new video repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, video *models.VideoAsset) error {
	if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
		return fmt.Errorf("creating video: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uint) (*models.VideoAsset, error) {
	var video models.VideoAsset
	if err := r.db.WithContext(ctx).First(&video, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("getting video: %w", err)
	}
	return &video, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *repository) List(ctx context.Context, q ListQuery) ([]models.VideoAsset, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.VideoAsset{})
	if q.Search != "" {
		query = query.Where(`original_name LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(q.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting videos: %w", err)
	}

	// OrderBy comes from the service allow-list, never from the caller directly
	order := q.OrderBy + " ASC"
	if q.Desc {
		order = q.OrderBy + " DESC"
	}

	var videos []models.VideoAsset
	err := query.Order(order).Order("id ASC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&videos).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing videos: %w", err)
	}
	return videos, total, nil
}

func (r *repository) UpdateAnnotation(ctx context.Context, id uint, patch AnnotationPatch) error {
	updates := map[string]interface{}{}
	if patch.TrackedObjects != nil {
		updates["tracked_objects"] = datatypes.NewJSONType(*patch.TrackedObjects)
	}
	if patch.CalibrationPoints != nil {
		updates["calibration_points"] = datatypes.JSON(patch.CalibrationPoints)
	}
	if patch.CompiledTracking != nil {
		updates["compiled_tracking"] = datatypes.JSON(patch.CompiledTracking)
	}
	if patch.touchesAnnotation() {
		updates["annotation_version"] = models.CurrentAnnotationVersion
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&models.VideoAsset{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("updating annotation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVideoNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.VideoAsset{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting video: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVideoNotFound
	}
	return nil
}

func (r *repository) exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.VideoAsset{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking video: %w", err)
	}
	return count > 0, nil
}

// missingOr resolves a zero-row conditional update into ErrVideoNotFound or ifPresent
func (r *repository) missingOr(ctx context.Context, id uint, ifPresent error) error {
	ok, err := r.exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrVideoNotFound
	}
	return ifPresent
}

func (r *repository) BeginDepthGeneration(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.VideoAsset{}).
		Where("id = ? AND depth_state <> ?", id, models.DepthStateGenerating).
		Updates(map[string]interface{}{
			"depth_state":       models.DepthStateGenerating,
			"depth_error":       "",
			"depth_job_id":      nil,
			"depth_started_at":  time.Now().UTC(),
			"depth_finished_at": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("starting depth generation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missingOr(ctx, id, ErrGenerationInProgress)
	}
	return nil
}

func (r *repository) AttachDepthJob(ctx context.Context, id, jobID uint) error {
	res := r.db.WithContext(ctx).Model(&models.VideoAsset{}).
		Where("id = ?", id).
		Update("depth_job_id", jobID)
	if res.Error != nil {
		return fmt.Errorf("attaching depth job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVideoNotFound
	}
	return nil
}

func (r *repository) CompleteDepthGeneration(ctx context.Context, id uint, depthFilename string) (string, error) {
	var previous string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var video models.VideoAsset
		if err := tx.Select("id", "depth_filename", "depth_state").First(&video, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVideoNotFound
			}
			return fmt.Errorf("loading video: %w", err)
		}
		if video.DepthState != models.DepthStateGenerating {
			return ErrNotGenerating
		}

		res := tx.Model(&models.VideoAsset{}).
			Where("id = ? AND depth_state = ?", id, models.DepthStateGenerating).
			Updates(map[string]interface{}{
				"depth_state":       models.DepthStateSucceeded,
				"depth_filename":    depthFilename,
				"depth_error":       "",
				"depth_finished_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("completing depth generation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotGenerating
		}
		previous = video.DepthFilename
		return nil
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

func (r *repository) FailDepthGeneration(ctx context.Context, id uint, message string) error {
	res := r.db.WithContext(ctx).Model(&models.VideoAsset{}).
		Where("id = ? AND depth_state = ?", id, models.DepthStateGenerating).
		Updates(map[string]interface{}{
			"depth_state":       models.DepthStateFailed,
			"depth_error":       message,
			"depth_finished_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failing depth generation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missingOr(ctx, id, ErrNotGenerating)
	}
	return nil
}

func (r *repository) FailOrphanedGenerations(ctx context.Context, message string, liveJobIDs []uint) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.VideoAsset{}).
		Where("depth_state = ?", models.DepthStateGenerating)
	if len(liveJobIDs) > 0 {
		query = query.Where("(depth_job_id IS NULL OR depth_job_id NOT IN ?)", liveJobIDs)
	}

	res := query.Updates(map[string]interface{}{
		"depth_state":       models.DepthStateFailed,
		"depth_error":       message,
		"depth_finished_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return 0, fmt.Errorf("failing orphaned generations: %w", res.Error)
	}
	return res.RowsAffected, nil
}
