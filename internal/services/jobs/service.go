package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/killallgit/depthtrack-api/internal/models"
	"github.com/killallgit/depthtrack-api/pkg/logger"
	"gorm.io/datatypes"
)

// DefaultPriority is given to every enqueued job; ClaimNextJob still honours higher values set on the row
const DefaultPriority = 0

type service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) Service {
	return &service{
		repo: repo,
		log:  log.With("service", "jobs"),
	}
}

func (s *service) EnqueueJob(ctx context.Context, jobType models.JobType, payload datatypes.JSONMap, opts ...JobOption) (*models.Job, error) {
	cfg := &jobConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	job := &models.Job{
		Type:      jobType,
		Status:    models.JobStatusPending,
		Payload:   payload,
		Priority:  DefaultPriority,
		CreatedBy: cfg.CreatedBy,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	s.log.Debug("enqueued job", "job_id", job.ID, "type", jobType, "priority", job.Priority)
	return job, nil
}

func (s *service) GetJob(ctx context.Context, jobID uint) (*models.Job, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return job, nil
}

func (s *service) FindActiveJob(ctx context.Context, jobType models.JobType, key string, value uint) (*models.Job, error) {
	job, err := s.repo.GetActiveJobByPayload(ctx, jobType, key, value)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("finding active %s job: %w", jobType, err)
	}
	return job, nil
}

func (s *service) GetJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	jobs, err := s.repo.GetJobsByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("listing %s jobs: %w", status, err)
	}
	return jobs, nil
}

func (s *service) ClaimNextJob(ctx context.Context, workerID string, jobTypes []models.JobType) (*models.Job, error) {
	job, err := s.repo.ClaimNextJob(ctx, workerID, jobTypes)
	if err != nil {
		if errors.Is(err, ErrNoJobsAvailable) {
			return nil, err
		}
		return nil, fmt.Errorf("claiming job: %w", err)
	}

	s.log.Debug("claimed job", "worker_id", workerID, "job_id", job.ID, "type", job.Type)
	return job, nil
}

func (s *service) UpdateProgress(ctx context.Context, jobID uint, progress int) error {
	if err := s.repo.UpdateJobProgress(ctx, jobID, progress); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("updating job progress: %w", err)
	}
	return nil
}

func (s *service) CompleteJob(ctx context.Context, jobID uint, result datatypes.JSONMap) error {
	if err := s.repo.CompleteJob(ctx, jobID, result); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("completing job: %w", err)
	}

	s.log.Info("job completed", "job_id", jobID)
	return nil
}

// FailJob records err on the job, keeping its classification when it is a StructuredJobError
func (s *service) FailJob(ctx context.Context, jobID uint, err error) error {
	errType := models.ErrorTypeSystem
	code, details := "", ""
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	var jobErr *models.StructuredJobError
	if errors.As(err, &jobErr) {
		errType = jobErr.Type
		code = jobErr.Code
		msg = jobErr.Message
		details = jobErr.Details
	}

	if repoErr := s.repo.FailJobWithDetails(ctx, jobID, errType, code, msg, details); repoErr != nil {
		if errors.Is(repoErr, ErrJobNotFound) {
			return repoErr
		}
		return fmt.Errorf("failing job: %w", repoErr)
	}

	s.log.Warn("job failed", "job_id", jobID, "error_type", errType, "error_code", code, "error", msg)
	return nil
}

// InterruptProcessingJobs marks every processing job as interrupted and returns them.
// Only safe at startup, before any worker of this process has claimed work.
func (s *service) InterruptProcessingJobs(ctx context.Context, reason string) ([]*models.Job, error) {
	stale, err := s.repo.GetJobsByStatus(ctx, models.JobStatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("listing processing jobs: %w", err)
	}
	if len(stale) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(stale))
	for _, job := range stale {
		ids = append(ids, job.ID)
	}
	if err := s.repo.MarkInterrupted(ctx, ids, reason); err != nil {
		return nil, err
	}

	for _, job := range stale {
		job.Status = models.JobStatusInterrupted
		job.Error = reason
	}
	s.log.Warn("interrupted stale jobs", "count", len(stale))
	return stale, nil
}

func (s *service) CleanupOldJobs(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}

	deleted, err := s.repo.DeleteOldJobs(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("cleaning up old jobs: %w", err)
	}

	if deleted > 0 {
		s.log.Info("cleaned up old jobs", "deleted", deleted)
	}
	return deleted, nil
}
