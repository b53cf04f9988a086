package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/killallgit/depthtrack-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository errors
var (
	ErrJobNotFound     = errors.New("job not found")
	ErrNoJobsAvailable = errors.New("no jobs available")
)

var activeStatuses = []models.JobStatus{models.JobStatusPending, models.JobStatusProcessing}

// Repository defines the interface for job persistence
type Repository interface {
	CreateJob(ctx context.Context, job *models.Job) error

	GetJob(ctx context.Context, id uint) (*models.Job, error)
	GetActiveJobByPayload(ctx context.Context, jobType models.JobType, key string, value uint) (*models.Job, error)
	GetJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error)

	ClaimNextJob(ctx context.Context, workerID string, jobTypes []models.JobType) (*models.Job, error)
	UpdateJobProgress(ctx context.Context, jobID uint, progress int) error
	CompleteJob(ctx context.Context, jobID uint, result datatypes.JSONMap) error
	FailJobWithDetails(ctx context.Context, jobID uint, errorType models.JobErrorType, errorCode, errorMsg, errorDetails string) error
	MarkInterrupted(ctx context.Context, jobIDs []uint, reason string) error

	DeleteOldJobs(ctx context.Context, olderThan time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new job repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) CreateJob(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repository) GetJob(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).First(&job, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return &job, nil
}

// GetActiveJobByPayload finds a pending or processing job by a numeric payload value
func (r *repository) GetActiveJobByPayload(ctx context.Context, jobType models.JobType, key string, value uint) (*models.Job, error) {
	var job models.Job

	err := r.db.WithContext(ctx).
		Where("type = ?", jobType).
		Where("status IN ?", activeStatuses).
		Where("json_extract(payload, ?) = ?", "$."+key, value).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("getting job by payload: %w", err)
	}

	return &job, nil
}

func (r *repository) GetJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	var jobs []*models.Job
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&jobs).Error
	return jobs, err
}

// ClaimNextJob atomically claims the next pending job for a worker
func (r *repository) ClaimNextJob(ctx context.Context, workerID string, jobTypes []models.JobType) (*models.Job, error) {
	var job models.Job

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ?", models.JobStatusPending)

		if len(jobTypes) > 0 {
			query = query.Where("type IN ?", jobTypes)
		}

		err := query.Order("priority DESC, created_at ASC, id ASC").First(&job).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoJobsAvailable
			}
			return fmt.Errorf("finding job to claim: %w", err)
		}

		now := time.Now()
		res := tx.Model(&models.Job{}).
			Where("id = ? AND status = ?", job.ID, models.JobStatusPending).
			Updates(map[string]interface{}{
				"status":     models.JobStatusProcessing,
				"worker_id":  workerID,
				"started_at": &now,
			})
		if res.Error != nil {
			return fmt.Errorf("updating claimed job: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNoJobsAvailable
		}

		job.Status = models.JobStatusProcessing
		job.WorkerID = workerID
		job.StartedAt = &now
		return nil
	})

	if err != nil {
		return nil, err
	}

	return &job, nil
}

func (r *repository) UpdateJobProgress(ctx context.Context, jobID uint, progress int) error {
	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}

	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusProcessing).
		Update("progress", progress)

	if result.Error != nil {
		return fmt.Errorf("updating job progress: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}

	return nil
}

func (r *repository) CompleteJob(ctx context.Context, jobID uint, result datatypes.JSONMap) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.JobStatusCompleted,
		"progress":     100,
		"completed_at": &now,
		"result":       result,
	}

	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", jobID).
		Updates(updates)

	if res.Error != nil {
		return fmt.Errorf("completing job: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}

	return nil
}

// FailJobWithDetails marks a job as failed. Failed jobs are never picked up again.
func (r *repository) FailJobWithDetails(ctx context.Context, jobID uint, errorType models.JobErrorType, errorCode, errorMsg, errorDetails string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":        models.JobStatusFailed,
		"error":         errorMsg,
		"error_type":    string(errorType),
		"error_code":    errorCode,
		"error_details": errorDetails,
		"completed_at":  &now,
		"worker_id":     "",
	}

	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", jobID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failing job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}

	return nil
}

// MarkInterrupted moves processing jobs to interrupted
func (r *repository) MarkInterrupted(ctx context.Context, jobIDs []uint, reason string) error {
	if len(jobIDs) == 0 {
		return nil
	}

	now := time.Now()
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id IN ? AND status = ?", jobIDs, models.JobStatusProcessing).
		Updates(map[string]interface{}{
			"status":       models.JobStatusInterrupted,
			"error":        reason,
			"error_type":   string(models.ErrorTypeSystem),
			"completed_at": &now,
			"worker_id":    "",
		}).Error
	if err != nil {
		return fmt.Errorf("interrupting jobs: %w", err)
	}
	return nil
}

// DeleteOldJobs permanently deletes finished jobs created before olderThan
func (r *repository) DeleteOldJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("created_at < ?", olderThan).
		Where("status IN ?", []models.JobStatus{
			models.JobStatusCompleted,
			models.JobStatusFailed,
			models.JobStatusInterrupted,
		}).
		Delete(&models.Job{})

	if result.Error != nil {
		return 0, fmt.Errorf("deleting old jobs: %w", result.Error)
	}

	return result.RowsAffected, nil
}
