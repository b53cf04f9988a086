package videos

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
	"github.com/killallgit/depthtrack-api/internal/services/depth"
)

// GenerateDepth queues depth generation for a video
// @Summary      Generate depth video
// @Description  Starts asynchronous depth generation. Only one run per video may be active.
// @Tags         videos
// @Produce      json
// @Param        id path int true "Video ID"
// @Success      202 {object} types.GenerateDepthResponse "Generation started"
// @Failure      404 {object} types.ErrorResponse "Video not found"
// @Failure      409 {object} types.GenerateDepthResponse "Generation already in progress"
// @Failure      429 {object} types.ErrorResponse "Rate limit exceeded"
// @Router       /api/v1/videos/{id}/generate-depth [post]
func GenerateDepth(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		result, err := deps.DepthService.StartDepthGeneration(c.Request.Context(), id)
		if err != nil {
			types.SendError(c, err)
			return
		}

		if result.Status == depth.StatusConflict {
			c.JSON(http.StatusConflict, types.GenerateDepthResponse{
				Status:  types.StatusConflict,
				Message: "Depth generation already in progress",
				VideoID: id,
				JobID:   result.JobID,
			})
			return
		}

		c.JSON(http.StatusAccepted, types.GenerateDepthResponse{
			Status:  types.StatusAccepted,
			Message: "Depth generation started",
			VideoID: id,
			JobID:   result.JobID,
		})
	}
}
