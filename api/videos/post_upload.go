package videos

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
	"github.com/killallgit/depthtrack-api/internal/services/videos"
	apperrors "github.com/killallgit/depthtrack-api/pkg/errors"
)

// UploadVideo stores a new video
// @Summary      Upload video
// @Description  Upload a video file (multipart field "video") with an optional description
// @Tags         videos
// @Accept       multipart/form-data
// @Produce      json
// @Param        video formData file true "Video file"
// @Param        description formData string false "Free-form description"
// @Success      201 {object} types.VideoResponse
// @Failure      400 {object} types.ErrorResponse "Missing file, unsupported type or file too large"
// @Failure      429 {object} types.ErrorResponse "Rate limit exceeded"
// @Failure      500 {object} types.ErrorResponse "Storage failure"
// @Router       /api/v1/videos [post]
func UploadVideo(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("video")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				types.SendError(c, apperrors.InvalidInput(apperrors.ConstraintFileTooLarge, "video exceeds the upload size limit").
					WithDetail("max_bytes", deps.MaxUploadSize))
				return
			}
			types.SendError(c, apperrors.InvalidInput(apperrors.ConstraintMissingField, "video file is required").
				WithDetail("field", "video"))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			types.SendError(c, apperrors.StorageError("read upload", err))
			return
		}
		defer file.Close()

		var description *string
		if value, ok := c.GetPostForm("description"); ok {
			description = &value
		}

		video, err := deps.VideoService.CreateAsset(c.Request.Context(), videos.Upload{
			Filename: fileHeader.Filename,
			MimeType: fileHeader.Header.Get("Content-Type"),
			Size:     fileHeader.Size,
			Reader:   file,
		}, description)
		if err != nil {
			deps.Log().Warn("upload rejected", "filename", fileHeader.Filename, "error", err)
			types.SendError(c, err)
			return
		}

		types.SendCreated(c, types.ToVideoResponse(video))
	}
}
