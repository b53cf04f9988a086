package videos

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
	"github.com/killallgit/depthtrack-api/internal/models"
	"github.com/killallgit/depthtrack-api/internal/services/media"
	apperrors "github.com/killallgit/depthtrack-api/pkg/errors"
)

// StreamOriginal serves the uploaded file
// @Summary      Stream original video
// @Tags         videos
// @Produce      octet-stream
// @Param        id path int true "Video ID"
// @Success      200 {file} binary
// @Success      206 {file} binary "Partial content"
// @Failure      404 {object} types.ErrorResponse "Video or file not found"
// @Router       /api/v1/videos/{id}/file [get]
func StreamOriginal(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		video, ok := loadVideo(c, deps)
		if !ok {
			return
		}
		serveStored(c, deps, video.StoredFilename, video.MimeType, video.UpdatedAt)
	}
}

// StreamDepth serves the derived depth video
// @Summary      Stream depth video
// @Tags         videos
// @Produce      octet-stream
// @Param        id path int true "Video ID"
// @Success      200 {file} binary
// @Success      206 {file} binary "Partial content"
// @Failure      404 {object} types.ErrorResponse "Video not found or no depth video yet"
// @Router       /api/v1/videos/{id}/depth [get]
func StreamDepth(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		video, ok := loadVideo(c, deps)
		if !ok {
			return
		}
		if !video.HasDepth() {
			types.SendError(c, apperrors.NotFound("depth video", video.ID))
			return
		}
		modTime := video.UpdatedAt
		if video.DepthFinishedAt != nil {
			modTime = *video.DepthFinishedAt
		}
		serveStored(c, deps, video.DepthFilename, "video/mp4", modTime)
	}
}

func loadVideo(c *gin.Context, deps *types.Dependencies) (*models.VideoAsset, bool) {
	id, ok := types.ParseUintParam(c, "id")
	if !ok {
		return nil, false
	}
	video, err := deps.VideoService.GetAsset(c.Request.Context(), id)
	if err != nil {
		types.SendError(c, err)
		return nil, false
	}
	return video, true
}

// serveStored streams a media file. Seekable files get range support.
func serveStored(c *gin.Context, deps *types.Dependencies, name, contentType string, modTime time.Time) {
	rc, err := deps.MediaStore.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, media.ErrFileNotFound) {
			types.SendError(c, apperrors.NotFound("media file", name))
			return
		}
		deps.Log().Error("failed to open media file", "name", name, "error", err)
		types.SendError(c, apperrors.StorageError("open media", err))
		return
	}
	defer rc.Close()

	c.Header("Content-Type", contentType)
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(c.Writer, c.Request, name, modTime, rs)
		return
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
