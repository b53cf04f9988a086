package workers

import (
	"context"
	"fmt"

	"github.com/killallgit/depthtrack-api/internal/models"
	"github.com/killallgit/depthtrack-api/internal/services/jobs"
	"gorm.io/datatypes"
)

// DepthGenerator runs the depth pipeline for one video under the given job
type DepthGenerator interface {
	Generate(ctx context.Context, videoID, jobID uint) (string, error)
}

// DepthProcessor processes depth generation jobs
type DepthProcessor struct {
	jobService jobs.Service
	generator  DepthGenerator
}

// NewDepthProcessor creates a new depth processor
func NewDepthProcessor(jobService jobs.Service, generator DepthGenerator) *DepthProcessor {
	return &DepthProcessor{
		jobService: jobService,
		generator:  generator,
	}
}

func (p *DepthProcessor) CanProcess(jobType models.JobType) bool {
	return jobType == models.JobTypeDepthGeneration
}

func (p *DepthProcessor) ProcessJob(ctx context.Context, job *models.Job) error {
	if !p.CanProcess(job.Type) {
		return fmt.Errorf("unsupported job type: %s", job.Type)
	}

	videoID, ok := job.GetPayloadUint("video_id")
	if !ok {
		return models.NewJobError(models.ErrorTypeSystem, "invalid_payload", "video_id missing from job payload", nil)
	}

	depthFilename, err := p.generator.Generate(ctx, videoID, job.ID)
	if err != nil {
		return err
	}

	result := datatypes.JSONMap{
		"video_id":       videoID,
		"depth_filename": depthFilename,
	}
	if err := p.jobService.CompleteJob(context.WithoutCancel(ctx), job.ID, result); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}
