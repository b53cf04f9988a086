package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/killallgit/depthtrack-api/internal/models"
	"github.com/killallgit/depthtrack-api/internal/services/jobs"
	"github.com/killallgit/depthtrack-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// memJobs is an in-memory jobs.Service
type memJobs struct {
	mu   sync.Mutex
	jobs []*models.Job
}

func (m *memJobs) add(payload datatypes.JSONMap) *models.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := &models.Job{
		Model:   gorm.Model{ID: uint(len(m.jobs) + 1)},
		Type:    models.JobTypeDepthGeneration,
		Status:  models.JobStatusPending,
		Payload: payload,
	}
	m.jobs = append(m.jobs, job)
	return job
}

func (m *memJobs) status(id uint) models.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id-1].Status
}

func (m *memJobs) EnqueueJob(ctx context.Context, jobType models.JobType, payload datatypes.JSONMap, opts ...jobs.JobOption) (*models.Job, error) {
	return m.add(payload), nil
}

func (m *memJobs) GetJob(ctx context.Context, id uint) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == 0 || int(id) > len(m.jobs) {
		return nil, jobs.ErrJobNotFound
	}
	job := *m.jobs[id-1]
	return &job, nil
}

func (m *memJobs) FindActiveJob(ctx context.Context, jobType models.JobType, key string, value uint) (*models.Job, error) {
	return nil, jobs.ErrJobNotFound
}

func (m *memJobs) GetJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	return nil, nil
}

func (m *memJobs) ClaimNextJob(ctx context.Context, workerID string, jobTypes []models.JobType) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.Status == models.JobStatusPending {
			job.Status = models.JobStatusProcessing
			job.WorkerID = workerID
			claimed := *job
			return &claimed, nil
		}
	}
	return nil, jobs.ErrNoJobsAvailable
}

func (m *memJobs) UpdateProgress(ctx context.Context, id uint, progress int) error { return nil }

func (m *memJobs) CompleteJob(ctx context.Context, id uint, result datatypes.JSONMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[id-1].Status = models.JobStatusCompleted
	m.jobs[id-1].Result = result
	return nil
}

func (m *memJobs) FailJob(ctx context.Context, id uint, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[id-1].Status = models.JobStatusFailed
	m.jobs[id-1].Error = err.Error()
	return nil
}

func (m *memJobs) InterruptProcessingJobs(ctx context.Context, reason string) ([]*models.Job, error) {
	return nil, nil
}

func (m *memJobs) CleanupOldJobs(ctx context.Context, retention time.Duration) (int64, error) {
	return 0, nil
}

type generatorFunc func(ctx context.Context, videoID, jobID uint) (string, error)

func (f generatorFunc) Generate(ctx context.Context, videoID, jobID uint) (string, error) {
	return f(ctx, videoID, jobID)
}

func TestDepthProcessor_CanProcess(t *testing.T) {
	p := &DepthProcessor{}
	assert.True(t, p.CanProcess(models.JobTypeDepthGeneration))
	assert.False(t, p.CanProcess("unknown_type"))
}

func TestDepthProcessor_ProcessJob(t *testing.T) {
	store := &memJobs{}
	ok := store.add(datatypes.JSONMap{"video_id": float64(7)})
	missing := store.add(datatypes.JSONMap{})

	var gotVideo, gotJob uint
	p := NewDepthProcessor(store, generatorFunc(func(ctx context.Context, videoID, jobID uint) (string, error) {
		gotVideo, gotJob = videoID, jobID
		return "depth-abc.mp4", nil
	}))

	require.NoError(t, p.ProcessJob(context.Background(), ok))
	assert.Equal(t, uint(7), gotVideo)
	assert.Equal(t, ok.ID, gotJob)
	assert.Equal(t, models.JobStatusCompleted, store.status(ok.ID))

	err := p.ProcessJob(context.Background(), missing)
	var jobErr *models.StructuredJobError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, "invalid_payload", jobErr.Code)
}

func TestWorkerPool_ProcessesAndFailsJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &memJobs{}
	good := store.add(datatypes.JSONMap{"video_id": 1})
	bad := store.add(datatypes.JSONMap{"video_id": 2})

	pool := NewWorkerPool(store, 2, time.Hour, logger.Nop())
	pool.RegisterProcessor(NewDepthProcessor(store, generatorFunc(func(ctx context.Context, videoID, jobID uint) (string, error) {
		if videoID == 2 {
			return "", errors.New("inference unavailable")
		}
		return "depth-1.mp4", nil
	})))

	require.NoError(t, pool.Start(context.Background()))
	assert.Error(t, pool.Start(context.Background()))
	pool.Wake()

	assert.Eventually(t, func() bool {
		return store.status(good.ID) == models.JobStatusCompleted &&
			store.status(bad.ID) == models.JobStatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	pool.Stop()
	pool.Stop()
}

func TestWorkerPool_StopCancelsInFlightJob(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &memJobs{}
	job := store.add(datatypes.JSONMap{"video_id": 1})

	started := make(chan struct{})
	pool := NewWorkerPool(store, 1, 10*time.Millisecond, logger.Nop())
	pool.RegisterProcessor(NewDepthProcessor(store, generatorFunc(func(ctx context.Context, videoID, jobID uint) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})))

	require.NoError(t, pool.Start(context.Background()))

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job was never picked up")
	}

	pool.Stop()
	assert.Equal(t, models.JobStatusFailed, store.status(job.ID))
}

func TestWake_NeverBlocks(t *testing.T) {
	pool := NewWorkerPool(&memJobs{}, 1, time.Hour, logger.Nop())
	for i := 0; i < 10; i++ {
		pool.Wake()
	}
}
