package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/killallgit/depthtrack-api/internal/database"
	"github.com/killallgit/depthtrack-api/internal/models"
	"github.com/killallgit/depthtrack-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func setupJobService(t *testing.T) (Service, *database.DB) {
	t.Helper()
	db, err := database.Initialize(database.Options{Path: filepath.Join(t.TempDir(), "jobs.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewService(NewRepository(db.DB), logger.Nop()), db
}

func TestEnqueueAndClaim(t *testing.T) {
	svc, db := setupJobService(t)
	ctx := context.Background()

	low, err := svc.EnqueueJob(ctx, models.JobTypeDepthGeneration, datatypes.JSONMap{"video_id": 1}, WithCreatedBy("api"))
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, low.Status)
	assert.Equal(t, DefaultPriority, low.Priority)
	assert.Equal(t, "api", low.CreatedBy)

	// rows written by an operator may carry a priority; it wins over age
	high := &models.Job{
		Type:     models.JobTypeDepthGeneration,
		Status:   models.JobStatusPending,
		Payload:  datatypes.JSONMap{"video_id": 2},
		Priority: 5,
	}
	require.NoError(t, NewRepository(db.DB).CreateJob(ctx, high))

	claimed, err := svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeDepthGeneration})
	require.NoError(t, err)
	assert.Equal(t, high.ID, claimed.ID)
	assert.Equal(t, models.JobStatusProcessing, claimed.Status)
	assert.Equal(t, "worker-1", claimed.WorkerID)

	videoID, ok := claimed.GetPayloadUint("video_id")
	require.True(t, ok)
	assert.Equal(t, uint(2), videoID)

	next, err := svc.ClaimNextJob(ctx, "worker-2", nil)
	require.NoError(t, err)
	assert.Equal(t, low.ID, next.ID)

	_, err = svc.ClaimNextJob(ctx, "worker-1", nil)
	assert.ErrorIs(t, err, ErrNoJobsAvailable)
}

func TestCompleteJob(t *testing.T) {
	svc, _ := setupJobService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeDepthGeneration, datatypes.JSONMap{"video_id": 1})
	require.NoError(t, err)
	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateProgress(ctx, job.ID, 150))
	require.NoError(t, svc.CompleteJob(ctx, job.ID, datatypes.JSONMap{"depth_filename": "depth-1.mp4"}))

	got, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "depth-1.mp4", got.Result["depth_filename"])
	assert.NotNil(t, got.CompletedAt)

	assert.ErrorIs(t, svc.CompleteJob(ctx, 999, nil), ErrJobNotFound)
}

func TestFailJob_ClassifiesStructuredErrors(t *testing.T) {
	svc, _ := setupJobService(t)
	ctx := context.Background()

	structured, err := svc.EnqueueJob(ctx, models.JobTypeDepthGeneration, datatypes.JSONMap{"video_id": 1})
	require.NoError(t, err)
	plain, err := svc.EnqueueJob(ctx, models.JobTypeDepthGeneration, datatypes.JSONMap{"video_id": 2})
	require.NoError(t, err)

	jobErr := models.NewJobError(models.ErrorTypeTranscode, "exit_1", "transcode failed", errors.New("exit status 1"))
	require.NoError(t, svc.FailJob(ctx, structured.ID, jobErr))
	require.NoError(t, svc.FailJob(ctx, plain.ID, errors.New("boom")))

	got, err := svc.GetJob(ctx, structured.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, string(models.ErrorTypeTranscode), got.ErrorType)
	assert.Equal(t, "exit_1", got.ErrorCode)
	assert.Equal(t, "transcode failed", got.Error)
	assert.Equal(t, "exit status 1", got.ErrorDetails)

	got, err = svc.GetJob(ctx, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.ErrorTypeSystem), got.ErrorType)
	assert.Equal(t, "boom", got.Error)

	// failed jobs are never claimed again
	_, err = svc.ClaimNextJob(ctx, "w", nil)
	assert.ErrorIs(t, err, ErrNoJobsAvailable)
}

func TestFindActiveJob(t *testing.T) {
	svc, _ := setupJobService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeDepthGeneration, datatypes.JSONMap{"video_id": uint(42)})
	require.NoError(t, err)

	found, err := svc.FindActiveJob(ctx, models.JobTypeDepthGeneration, "video_id", 42)
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)

	_, err = svc.FindActiveJob(ctx, models.JobTypeDepthGeneration, "video_id", 43)
	assert.ErrorIs(t, err, ErrJobNotFound)

	require.NoError(t, svc.FailJob(ctx, job.ID, errors.New("x")))
	_, err = svc.FindActiveJob(ctx, models.JobTypeDepthGeneration, "video_id", 42)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestInterruptProcessingJobs(t *testing.T) {
	svc, _ := setupJobService(t)
	ctx := context.Background()

	running, err := svc.EnqueueJob(ctx, models.JobTypeDepthGeneration, datatypes.JSONMap{"video_id": 1})
	require.NoError(t, err)
	_, err = svc.ClaimNextJob(ctx, "dead-worker", nil)
	require.NoError(t, err)
	pending, err := svc.EnqueueJob(ctx, models.JobTypeDepthGeneration, datatypes.JSONMap{"video_id": 2})
	require.NoError(t, err)

	stale, err := svc.InterruptProcessingJobs(ctx, "interrupted by server restart")
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, running.ID, stale[0].ID)

	got, err := svc.GetJob(ctx, running.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusInterrupted, got.Status)
	assert.Equal(t, "interrupted by server restart", got.Error)

	got, err = svc.GetJob(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, got.Status)

	stale, err = svc.InterruptProcessingJobs(ctx, "again")
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestCleanupOldJobs(t *testing.T) {
	svc, db := setupJobService(t)
	ctx := context.Background()

	old, err := svc.EnqueueJob(ctx, models.JobTypeDepthGeneration, datatypes.JSONMap{"video_id": 1})
	require.NoError(t, err)
	require.NoError(t, svc.FailJob(ctx, old.ID, errors.New("x")))
	oldPending, err := svc.EnqueueJob(ctx, models.JobTypeDepthGeneration, datatypes.JSONMap{"video_id": 2})
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&models.Job{}).Where("id IN ?", []uint{old.ID, oldPending.ID}).Update("created_at", past).Error)

	deleted, err := svc.CleanupOldJobs(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = svc.GetJob(ctx, old.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = svc.GetJob(ctx, oldPending.ID)
	assert.NoError(t, err)

	deleted, err = svc.CleanupOldJobs(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
