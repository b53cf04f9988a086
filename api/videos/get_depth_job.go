package videos

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
)

// GetDepthJob reports the job behind a video's depth generation
// @Summary      Get depth job
// @Description  Status and progress of the video's current or most recent depth generation run
// @Tags         videos
// @Produce      json
// @Param        id path int true "Video ID"
// @Success      200 {object} types.DepthJobResponse
// @Failure      400 {object} types.ErrorResponse "Invalid video ID"
// @Failure      404 {object} types.ErrorResponse "Video or depth job not found"
// @Router       /api/v1/videos/{id}/depth-job [get]
func GetDepthJob(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		job, err := deps.DepthService.DepthJob(c.Request.Context(), id)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.ToDepthJobResponse(job, id))
	}
}
