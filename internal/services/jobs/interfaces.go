package jobs

import (
	"context"
	"time"

	"github.com/killallgit/depthtrack-api/internal/models"
	"gorm.io/datatypes"
)

// Service defines the business logic interface for job operations
type Service interface {
	EnqueueJob(ctx context.Context, jobType models.JobType, payload datatypes.JSONMap, opts ...JobOption) (*models.Job, error)

	GetJob(ctx context.Context, jobID uint) (*models.Job, error)
	// FindActiveJob returns the pending or processing job of jobType whose payload key equals value
	FindActiveJob(ctx context.Context, jobType models.JobType, key string, value uint) (*models.Job, error)
	GetJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error)

	// Worker operations (used by worker pool)
	ClaimNextJob(ctx context.Context, workerID string, jobTypes []models.JobType) (*models.Job, error)
	UpdateProgress(ctx context.Context, jobID uint, progress int) error
	CompleteJob(ctx context.Context, jobID uint, result datatypes.JSONMap) error
	FailJob(ctx context.Context, jobID uint, err error) error

	// Maintenance
	InterruptProcessingJobs(ctx context.Context, reason string) ([]*models.Job, error)
	CleanupOldJobs(ctx context.Context, retention time.Duration) (int64, error)
}

// JobOption is a functional option for configuring jobs
type JobOption func(*jobConfig)

type jobConfig struct {
	CreatedBy string
}

// WithCreatedBy sets who created the job
func WithCreatedBy(createdBy string) JobOption {
	return func(cfg *jobConfig) {
		cfg.CreatedBy = createdBy
	}
}
