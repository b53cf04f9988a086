package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/killallgit/depthtrack-api/api"
	"github.com/killallgit/depthtrack-api/api/types"
	"github.com/killallgit/depthtrack-api/internal/database"
	"github.com/killallgit/depthtrack-api/internal/services/cleanup"
	"github.com/killallgit/depthtrack-api/internal/services/depth"
	"github.com/killallgit/depthtrack-api/internal/services/inference"
	"github.com/killallgit/depthtrack-api/internal/services/jobs"
	"github.com/killallgit/depthtrack-api/internal/services/media"
	"github.com/killallgit/depthtrack-api/internal/services/videos"
	"github.com/killallgit/depthtrack-api/internal/services/workers"
	"github.com/killallgit/depthtrack-api/pkg/config"
	"github.com/killallgit/depthtrack-api/pkg/ffmpeg"
	"github.com/killallgit/depthtrack-api/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// application owns every long-lived component of the serve command
type application struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	store   media.Store
	depth   *depth.Service
	pool    *workers.WorkerPool
	janitor *cleanup.Service
	server  *api.Server
}

// newApplication opens storage and wires services. Nothing runs until run is called.
func newApplication(ctx context.Context, cfg *config.Config, log *logger.Logger) (*application, error) {
	app := &application{cfg: cfg, log: log}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.Migrate(); err != nil {
		app.close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store, err := newMediaStore(ctx, cfg.Storage)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to initialize media store: %w", err)
	}
	app.store = store

	transcoder := ffmpeg.New(cfg.Transcode.FFmpegPath, ffmpeg.Options{
		Codec:  cfg.Transcode.Codec,
		Preset: cfg.Transcode.Preset,
		CRF:    cfg.Transcode.CRF,
	})
	if err := transcoder.ValidateBinaries(); err != nil {
		// depth runs will fail at the transcode stage until ffmpeg is installed
		log.Warn("ffmpeg not available", "error", err)
	}

	videoRepo := videos.NewRepository(db.DB)
	videoService := videos.NewService(videoRepo, store, videos.Options{
		AllowedMimeTypes: cfg.Storage.AllowedMimeTypes,
		MaxUploadSize:    cfg.Storage.MaxUploadSize,
	}, log)

	jobService := jobs.NewService(jobs.NewRepository(db.DB), log)

	app.depth = depth.NewService(depth.Options{
		Videos:     videoRepo,
		Store:      store,
		Jobs:       jobService,
		Transcoder: transcoder,
		Inferer: inference.NewClient(inference.Config{
			URL:     cfg.Depth.InferenceURL,
			Timeout: cfg.Depth.Timeout,
			Params: inference.Params{
				NumDenoisingSteps: cfg.Depth.NumDenoisingSteps,
				GuidanceScale:     cfg.Depth.GuidanceScale,
				MaxResolution:     cfg.Depth.MaxResolution,
				MaxFrames:         cfg.Depth.MaxFrames,
			},
		}),
		TempDir: cfg.Storage.TempDir,
		Logger:  log,
	})

	app.pool = workers.NewWorkerPool(jobService, cfg.Processing.Workers, cfg.Processing.PollInterval, log)
	app.pool.RegisterProcessor(workers.NewDepthProcessor(jobService, app.depth))
	app.depth.SetWaker(app.pool)

	app.janitor = cleanup.NewService(cleanup.Options{
		TempDir:      cfg.Storage.TempDir,
		Pattern:      depth.RunDirPattern,
		MaxAge:       cfg.Storage.MaxTempAge,
		Interval:     cfg.Storage.CleanupInterval,
		Jobs:         jobService,
		JobRetention: cfg.Processing.JobRetention,
	}, log)

	app.server = api.NewServer(cfg, log)
	app.server.SetDependencies(&types.Dependencies{
		DB:            db,
		VideoService:  videoService,
		DepthService:  app.depth,
		MediaStore:    store,
		Logger:        log,
		MaxUploadSize: cfg.Storage.MaxUploadSize,
		Build:         buildInfo(),
	})
	if err := app.server.Initialize(); err != nil {
		app.close()
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

func newMediaStore(ctx context.Context, cfg config.StorageConfig) (media.Store, error) {
	switch cfg.Backend {
	case "gcs":
		return media.NewGCSStore(ctx, media.GCSOptions{
			Bucket:   cfg.GCS.Bucket,
			Prefix:   cfg.GCS.Prefix,
			Endpoint: cfg.GCS.Endpoint,
		})
	default:
		return media.NewFilesystemStore(cfg.MediaDir)
	}
}

// run recovers interrupted work, starts background services and serves HTTP until ctx ends
func (a *application) run(ctx context.Context) error {
	if err := os.MkdirAll(a.cfg.Storage.TempDir, 0o755); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}

	// Must finish before workers start so no live run is mistaken for an orphan
	if err := a.depth.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover interrupted depth runs: %w", err)
	}

	if err := a.pool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	a.janitor.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		err := a.server.Shutdown(shutdownCtx)
		a.pool.Stop()
		a.janitor.Stop()
		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// close releases storage handles; safe on a partially built application
func (a *application) close() {
	var errs []error
	if closer, ok := a.store.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Warn("error while closing resources", "error", err)
	}
}
