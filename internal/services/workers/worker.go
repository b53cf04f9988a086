package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/killallgit/depthtrack-api/internal/models"
	"github.com/killallgit/depthtrack-api/internal/services/jobs"
	"github.com/killallgit/depthtrack-api/pkg/logger"
)

// JobProcessor defines the interface for processing different job types
type JobProcessor interface {
	ProcessJob(ctx context.Context, job *models.Job) error
	CanProcess(jobType models.JobType) bool
}

var allJobTypes = []models.JobType{
	models.JobTypeDepthGeneration,
}

// Worker represents a background worker that processes jobs
type Worker struct {
	id           string
	jobService   jobs.Service
	processors   []JobProcessor
	wake         <-chan struct{}
	pollInterval time.Duration
	log          *logger.Logger
}

// NewWorker creates a new worker instance
func NewWorker(id string, jobService jobs.Service, pollInterval time.Duration, wake <-chan struct{}, log *logger.Logger) *Worker {
	return &Worker{
		id:           id,
		jobService:   jobService,
		processors:   make([]JobProcessor, 0),
		wake:         wake,
		pollInterval: pollInterval,
		log:          log.With("worker_id", id),
	}
}

// RegisterProcessor registers a job processor
func (w *Worker) RegisterProcessor(processor JobProcessor) {
	w.processors = append(w.processors, processor)
}

// run is the main worker loop. It drains the queue before waiting for the next tick or wake-up.
func (w *Worker) run(ctx context.Context) {
	w.log.Debug("worker starting")
	defer w.log.Debug("worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-w.wake:
		}

		for ctx.Err() == nil {
			processed, err := w.processNextJob(ctx)
			if err != nil {
				w.log.Warn("error processing job", "error", err)
			}
			if !processed {
				break
			}
		}
	}
}

func (w *Worker) supportedTypes() []models.JobType {
	var supported []models.JobType
	for _, jobType := range allJobTypes {
		for _, p := range w.processors {
			if p.CanProcess(jobType) {
				supported = append(supported, jobType)
				break
			}
		}
	}
	return supported
}

// processNextJob claims and processes the next available job.
// It reports whether a job was claimed.
func (w *Worker) processNextJob(ctx context.Context) (bool, error) {
	supportedTypes := w.supportedTypes()
	if len(supportedTypes) == 0 {
		return false, fmt.Errorf("no job processors registered")
	}

	job, err := w.jobService.ClaimNextJob(ctx, w.id, supportedTypes)
	if err != nil {
		if errors.Is(err, jobs.ErrNoJobsAvailable) || ctx.Err() != nil {
			return false, nil
		}
		return false, err
	}

	w.log.Info("claimed job", "job_id", job.ID, "type", job.Type)

	var processor JobProcessor
	for _, p := range w.processors {
		if p.CanProcess(job.Type) {
			processor = p
			break
		}
	}
	if processor == nil {
		return true, fmt.Errorf("no processor found for job type %s", job.Type)
	}

	if err := processor.ProcessJob(ctx, job); err != nil {
		// the job row must reach a terminal state even when shutdown cancelled ctx
		if failErr := w.jobService.FailJob(context.WithoutCancel(ctx), job.ID, err); failErr != nil {
			w.log.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, fmt.Errorf("job %d failed: %w", job.ID, err)
	}

	w.log.Info("completed job", "job_id", job.ID)
	return true, nil
}

// WorkerPool manages multiple workers
type WorkerPool struct {
	workers []*Worker
	wake    chan struct{}
	log     *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(jobService jobs.Service, workerCount int, pollInterval time.Duration, log *logger.Logger) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	pool := &WorkerPool{
		workers: make([]*Worker, workerCount),
		wake:    make(chan struct{}, workerCount),
		log:     log.With("component", "worker_pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerID := fmt.Sprintf("worker-%d", i+1)
		pool.workers[i] = NewWorker(workerID, jobService, pollInterval, pool.wake, log)
	}

	return pool
}

// RegisterProcessor registers a processor with all workers
func (p *WorkerPool) RegisterProcessor(processor JobProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, worker := range p.workers {
		worker.RegisterProcessor(processor)
	}
}

// Wake nudges an idle worker to poll immediately. It never blocks.
func (p *WorkerPool) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Start starts all workers
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("worker pool already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.log.Info("starting worker pool", "workers", len(p.workers))
	for _, worker := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.run(ctx)
		}(worker)
	}

	p.started = true
	return nil
}

// Stop cancels in-flight jobs and waits for every worker to return
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.log.Info("stopping worker pool")
	p.cancel()
	p.wg.Wait()
	p.started = false
}
