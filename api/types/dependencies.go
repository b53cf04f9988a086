package types

import (
	"context"

	"github.com/killallgit/depthtrack-api/internal/database"
	"github.com/killallgit/depthtrack-api/internal/models"
	"github.com/killallgit/depthtrack-api/internal/services/depth"
	"github.com/killallgit/depthtrack-api/internal/services/media"
	"github.com/killallgit/depthtrack-api/internal/services/videos"
	"github.com/killallgit/depthtrack-api/pkg/logger"
)

// DepthService queues depth generation for a video and reports on its job
type DepthService interface {
	StartDepthGeneration(ctx context.Context, id uint) (*depth.StartResult, error)
	DepthJob(ctx context.Context, id uint) (*models.Job, error)
}

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB           *database.DB
	VideoService videos.Service
	DepthService DepthService
	MediaStore   media.Store
	Logger       *logger.Logger
	// MaxUploadSize caps multipart uploads in bytes
	MaxUploadSize int64
	Build         BuildInfo
}

// BuildInfo identifies the running binary
type BuildInfo struct {
	Version   string `json:"version" example:"1.0.0"`
	GitCommit string `json:"gitCommit" example:"a1b2c3d"`
	BuildTime string `json:"buildTime" example:"2026-01-01T00:00:00Z"`
}

// Log returns the configured logger or a no-op one
func (d *Dependencies) Log() *logger.Logger {
	if d == nil || d.Logger == nil {
		return logger.Nop()
	}
	return d.Logger
}
