package depth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/killallgit/depthtrack-api/internal/metrics"
	"github.com/killallgit/depthtrack-api/internal/models"
	"github.com/killallgit/depthtrack-api/internal/services/inference"
	"github.com/killallgit/depthtrack-api/internal/services/jobs"
	"github.com/killallgit/depthtrack-api/internal/services/media"
	"github.com/killallgit/depthtrack-api/internal/services/videos"
	apperrors "github.com/killallgit/depthtrack-api/pkg/errors"
	"github.com/killallgit/depthtrack-api/pkg/logger"
	"gorm.io/datatypes"
)

// RunDirPattern names the per-run scratch directories under the temp dir
const RunDirPattern = "depth-run-*"

// InterruptedMessage is recorded on assets whose run died with the process
const InterruptedMessage = "interrupted by server restart"

const payloadVideoID = "video_id"

// StartStatus is the outcome of a start request
type StartStatus string

const (
	StatusAccepted StartStatus = "accepted"
	StatusConflict StartStatus = "conflict"
)

// StartResult is returned by StartDepthGeneration
type StartResult struct {
	Status StartStatus
	// JobID is the job running the generation, for a conflict the one already in flight
	JobID uint
}

// Inferer produces a raw depth video from an original
type Inferer interface {
	Infer(ctx context.Context, req inference.Request) ([]byte, error)
}

// Transcoder re-encodes a file for web playback and removes the input
type Transcoder interface {
	Transcode(ctx context.Context, input string) (string, error)
}

// Waker is notified when new work is queued
type Waker interface {
	Wake()
}

// Service drives depth generation for video assets
type Service struct {
	videos     videos.Repository
	store      media.Store
	jobs       jobs.Service
	inferer    Inferer
	transcoder Transcoder
	waker      Waker
	tempDir    string
	log        *logger.Logger
}

// Options wires the collaborators of a Service
type Options struct {
	Videos     videos.Repository
	Store      media.Store
	Jobs       jobs.Service
	Inferer    Inferer
	Transcoder Transcoder
	// Waker is optional; without it queued jobs wait for the next poll
	Waker   Waker
	TempDir string
	Logger  *logger.Logger
}

// NewService creates a depth generation service
func NewService(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		videos:     opts.Videos,
		store:      opts.Store,
		jobs:       opts.Jobs,
		inferer:    opts.Inferer,
		transcoder: opts.Transcoder,
		waker:      opts.Waker,
		tempDir:    opts.TempDir,
		log:        log.With("service", "depth"),
	}
}

// SetWaker attaches the worker pool once it exists
func (s *Service) SetWaker(w Waker) {
	s.waker = w
}

// StartDepthGeneration moves the asset to generating and queues the run.
// It never waits for the run itself.
func (s *Service) StartDepthGeneration(ctx context.Context, id uint) (*StartResult, error) {
	err := s.videos.BeginDepthGeneration(ctx, id)
	switch {
	case errors.Is(err, videos.ErrVideoNotFound):
		metrics.RecordDepthRequest("not_found")
		return nil, apperrors.NotFound("video", id)
	case errors.Is(err, videos.ErrGenerationInProgress):
		metrics.RecordDepthRequest("conflict")
		return &StartResult{Status: StatusConflict, JobID: s.inFlightJob(ctx, id)}, nil
	case err != nil:
		metrics.RecordDepthRequest("error")
		return nil, apperrors.StorageError("start depth generation", err)
	}

	job, err := s.jobs.EnqueueJob(ctx, models.JobTypeDepthGeneration,
		datatypes.JSONMap{payloadVideoID: id},
		jobs.WithCreatedBy("api"),
	)
	if err != nil {
		metrics.RecordDepthRequest("error")
		if failErr := s.videos.FailDepthGeneration(context.WithoutCancel(ctx), id, "enqueue: "+err.Error()); failErr != nil {
			s.log.Error("failed to reset depth state after enqueue failure", "video_id", id, "error", failErr)
		}
		return nil, apperrors.StorageError("enqueue depth job", err)
	}

	if err := s.videos.AttachDepthJob(ctx, id, job.ID); err != nil {
		// without the handle no worker will run this job; undo both sides
		metrics.RecordDepthRequest("error")
		persistCtx := context.WithoutCancel(ctx)
		if failErr := s.jobs.FailJob(persistCtx, job.ID, err); failErr != nil {
			s.log.Error("failed to fail unattached depth job", "job_id", job.ID, "error", failErr)
		}
		if failErr := s.videos.FailDepthGeneration(persistCtx, id, "attach job: "+err.Error()); failErr != nil {
			s.log.Error("failed to reset depth state after attach failure", "video_id", id, "error", failErr)
		}
		return nil, apperrors.StorageError("attach depth job", err)
	}
	if s.waker != nil {
		s.waker.Wake()
	}

	metrics.RecordDepthRequest("accepted")
	s.log.Info("depth generation accepted", "video_id", id, "job_id", job.ID)
	return &StartResult{Status: StatusAccepted, JobID: job.ID}, nil
}

// inFlightJob finds the job running the current generation; zero when none is known yet.
// The asset's handle wins; the job table covers the window before the handle is attached.
func (s *Service) inFlightJob(ctx context.Context, id uint) uint {
	if video, err := s.videos.Get(ctx, id); err == nil && video.DepthJobID != nil {
		return *video.DepthJobID
	}
	job, err := s.jobs.FindActiveJob(ctx, models.JobTypeDepthGeneration, payloadVideoID, id)
	if err != nil {
		if !errors.Is(err, jobs.ErrJobNotFound) {
			s.log.Warn("failed to look up active depth job", "video_id", id, "error", err)
		}
		return 0
	}
	return job.ID
}

// DepthJob returns the job row of the asset's current or last depth run
func (s *Service) DepthJob(ctx context.Context, id uint) (*models.Job, error) {
	video, err := s.videos.Get(ctx, id)
	if err != nil {
		if errors.Is(err, videos.ErrVideoNotFound) {
			return nil, apperrors.NotFound("video", id)
		}
		return nil, apperrors.StorageError("get video", err)
	}
	if video.DepthJobID == nil {
		return nil, apperrors.NotFound("depth job", id)
	}

	job, err := s.jobs.GetJob(ctx, *video.DepthJobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			// pruned by retention
			return nil, apperrors.NotFound("depth job", id)
		}
		return nil, apperrors.StorageError("get depth job", err)
	}
	return job, nil
}

// Generate runs the pipeline for a video that is generating under jobID and returns the new depth filename.
// On failure the asset is marked failed and its previous depth file is kept.
func (s *Service) Generate(ctx context.Context, id, jobID uint) (string, error) {
	video, err := s.videos.Get(ctx, id)
	if err != nil {
		if errors.Is(err, videos.ErrVideoNotFound) {
			return "", models.NewJobError(models.ErrorTypeNotFound, "video_not_found", fmt.Sprintf("video %d no longer exists", id), err)
		}
		return "", models.NewJobError(models.ErrorTypeStorage, "load_failed", "loading video", err)
	}
	if video.DepthState != models.DepthStateGenerating {
		return "", models.NewJobError(models.ErrorTypeSystem, "not_generating",
			fmt.Sprintf("video %d is %s, not generating", id, video.DepthState), nil)
	}
	if video.DepthJobID == nil || *video.DepthJobID != jobID {
		// a leftover job must not run alongside the one the asset points at
		return "", models.NewJobError(models.ErrorTypeSystem, "not_generating",
			fmt.Sprintf("job %d is not the current depth job of video %d", jobID, id), nil)
	}

	log := s.log.With("video_id", id, "job_id", jobID)
	log.Info("depth generation started")

	metrics.DepthRunsInFlight.Inc()
	defer metrics.DepthRunsInFlight.Dec()
	start := time.Now()

	// state writes below must land even if shutdown cancelled ctx
	persistCtx := context.WithoutCancel(ctx)

	filename, err := s.run(ctx, video, progressReporter(s, jobID, log))
	if err != nil {
		var stageErr *StageError
		if !errors.As(err, &stageErr) {
			stageErr = &StageError{Stage: StageFinalize, Err: err}
		}
		metrics.ObserveDepthRun(stageErr.Stage, time.Since(start))

		if failErr := s.videos.FailDepthGeneration(persistCtx, id, stageErr.Error()); failErr != nil {
			log.Warn("failed to record depth failure", "error", failErr)
		}
		log.Warn("depth generation failed", "stage", stageErr.Stage, "error", stageErr.Err)
		return "", stageErr.jobError()
	}

	previous, err := s.videos.CompleteDepthGeneration(persistCtx, id, filename)
	if err != nil {
		// the asset was deleted or reset mid-run; nothing references the new file
		s.discard(persistCtx, filename)
		metrics.ObserveDepthRun(StageFinalize, time.Since(start))
		if errors.Is(err, videos.ErrVideoNotFound) {
			return "", models.NewJobError(models.ErrorTypeNotFound, "video_not_found", fmt.Sprintf("video %d deleted during generation", id), err)
		}
		return "", (&StageError{Stage: StageFinalize, Err: err}).jobError()
	}

	if previous != "" && previous != filename {
		s.discard(persistCtx, previous)
	}

	metrics.ObserveDepthRun("", time.Since(start))
	log.Info("depth generation succeeded", "depth_file", filename, "duration", time.Since(start))
	return filename, nil
}

// Job progress recorded after each stage completes
const (
	progressOpened     = 10
	progressInferred   = 60
	progressTranscoded = 85
	progressStored     = 95
)

func progressReporter(s *Service, jobID uint, log *logger.Logger) func(ctx context.Context, progress int) {
	return func(ctx context.Context, progress int) {
		if err := s.jobs.UpdateProgress(context.WithoutCancel(ctx), jobID, progress); err != nil {
			log.Debug("failed to record job progress", "progress", progress, "error", err)
		}
	}
}

// run executes inference, transcode and store inside a scratch directory that is always removed
func (s *Service) run(ctx context.Context, video *models.VideoAsset, report func(context.Context, int)) (string, error) {
	if err := os.MkdirAll(s.tempDir, 0755); err != nil {
		return "", &StageError{Stage: StageWrite, Err: err}
	}
	dir, err := os.MkdirTemp(s.tempDir, RunDirPattern)
	if err != nil {
		return "", &StageError{Stage: StageWrite, Err: err}
	}
	defer os.RemoveAll(dir)

	src, err := s.store.Open(ctx, video.StoredFilename)
	if err != nil {
		return "", &StageError{Stage: StageOpen, Err: err}
	}
	report(ctx, progressOpened)
	raw, err := s.inferer.Infer(ctx, inference.Request{Filename: video.OriginalName, Video: src})
	src.Close()
	if err != nil {
		return "", &StageError{Stage: StageInference, Err: err}
	}
	report(ctx, progressInferred)

	rawPath := filepath.Join(dir, "depth.mp4")
	if err := os.WriteFile(rawPath, raw, 0644); err != nil {
		return "", &StageError{Stage: StageWrite, Err: err}
	}

	webPath, err := s.transcoder.Transcode(ctx, rawPath)
	if err != nil {
		return "", &StageError{Stage: StageTranscode, Err: err}
	}
	report(ctx, progressTranscoded)

	f, err := os.Open(webPath)
	if err != nil {
		return "", &StageError{Stage: StageStore, Err: err}
	}
	defer f.Close()

	name, err := s.store.WriteDerived(ctx, f, ".mp4")
	if err != nil {
		return "", &StageError{Stage: StageStore, Err: err}
	}
	report(ctx, progressStored)
	return name, nil
}

func (s *Service) discard(ctx context.Context, name string) {
	if err := s.store.Delete(ctx, name); err != nil && !errors.Is(err, media.ErrFileNotFound) {
		s.log.Warn("failed to remove depth file", "file", name, "error", err)
	}
}

// Recover reconciles state left by a process that died mid-run. Call it before workers start.
// Processing jobs become interrupted and their assets failed; pending jobs are left to run.
func (s *Service) Recover(ctx context.Context) error {
	stale, err := s.jobs.InterruptProcessingJobs(ctx, InterruptedMessage)
	if err != nil {
		return fmt.Errorf("interrupting stale jobs: %w", err)
	}

	pending, err := s.jobs.GetJobsByStatus(ctx, models.JobStatusPending)
	if err != nil {
		return fmt.Errorf("listing pending jobs: %w", err)
	}
	live := make([]uint, 0, len(pending))
	for _, job := range pending {
		if job.Type == models.JobTypeDepthGeneration {
			live = append(live, job.ID)
		}
	}

	failed, err := s.videos.FailOrphanedGenerations(ctx, InterruptedMessage, live)
	if err != nil {
		return fmt.Errorf("failing orphaned generations: %w", err)
	}

	if len(stale) > 0 || failed > 0 {
		metrics.DepthRecovered.Add(float64(failed))
		s.log.Warn("recovered interrupted depth runs", "jobs", len(stale), "videos", failed)
	}
	return nil
}
