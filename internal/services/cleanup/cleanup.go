package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/killallgit/depthtrack-api/pkg/logger"
)

// JobPruner deletes finished job rows past their retention
type JobPruner interface {
	CleanupOldJobs(ctx context.Context, retention time.Duration) (int64, error)
}

// Options configures the janitor
type Options struct {
	TempDir  string
	Pattern  string
	MaxAge   time.Duration
	Interval time.Duration

	Jobs         JobPruner
	JobRetention time.Duration
}

// Service removes scratch directories left behind by crashed depth runs and prunes old jobs
type Service struct {
	opts   Options
	log    *logger.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a new cleanup service
func NewService(opts Options, log *logger.Logger) *Service {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Minute
	}
	if opts.Pattern == "" {
		opts.Pattern = "*"
	}
	s := &Service{
		opts: opts,
		log:  log.With("service", "cleanup"),
	}
	if opts.MaxAge <= 0 {
		s.log.Warn("scratch cleanup disabled, max age is not positive", "max_age", opts.MaxAge)
	}
	return s
}

// Start runs one sweep immediately and then one per interval until ctx ends or Stop is called
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.Sweep(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-ctx.Done():
				s.log.Info("cleanup service stopped")
				return
			}
		}
	}()

	s.log.Info("cleanup service started", "interval", s.opts.Interval, "max_age", s.opts.MaxAge)
}

// Stop stops the cleanup service and waits for an in-progress sweep
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Sweep performs one cleanup pass
func (s *Service) Sweep(ctx context.Context) {
	s.removeStale()

	if s.opts.Jobs != nil && s.opts.JobRetention > 0 {
		if _, err := s.opts.Jobs.CleanupOldJobs(ctx, s.opts.JobRetention); err != nil {
			s.log.Warn("job cleanup failed", "error", err)
		}
	}
}

// removeStale deletes entries in the temp dir matching the pattern and untouched for longer than MaxAge
func (s *Service) removeStale() int {
	if s.opts.MaxAge <= 0 {
		return 0
	}

	matches, err := filepath.Glob(filepath.Join(s.opts.TempDir, s.opts.Pattern))
	if err != nil {
		s.log.Error("cleanup glob failed", "error", err)
		return 0
	}

	removed := 0
	for _, path := range matches {
		modified, err := lastModified(path)
		if err != nil {
			continue
		}
		if time.Since(modified) <= s.opts.MaxAge {
			continue
		}

		s.log.Debug("removing stale scratch entry", "path", path)
		if err := os.RemoveAll(path); err != nil {
			s.log.Warn("failed to remove scratch entry", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.Info("removed stale scratch entries", "count", removed)
	}
	return removed
}

// lastModified is the newest mtime of path and its direct children.
// A file still being written by ffmpeg keeps its run directory alive.
func lastModified(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	newest := info.ModTime()
	if !info.IsDir() {
		return newest, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return newest, nil
	}
	for _, entry := range entries {
		child, err := entry.Info()
		if err != nil {
			continue
		}
		if child.ModTime().After(newest) {
			newest = child.ModTime()
		}
	}
	return newest, nil
}
