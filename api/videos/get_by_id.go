package videos

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
)

// GetVideo returns a single video
// @Summary      Get video
// @Description  Fetch a video with its depth state and annotation data
// @Tags         videos
// @Produce      json
// @Param        id path int true "Video ID"
// @Success      200 {object} types.VideoResponse
// @Failure      400 {object} types.ErrorResponse "Invalid video ID"
// @Failure      404 {object} types.ErrorResponse "Video not found"
// @Router       /api/v1/videos/{id} [get]
func GetVideo(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		video, err := deps.VideoService.GetAsset(c.Request.Context(), id)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.ToVideoResponse(video))
	}
}
