package videos

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
)

// DeleteVideo removes a video and its files
// @Summary      Delete video
// @Description  Deletes the original file, the record and any depth video
// @Tags         videos
// @Produce      json
// @Param        id path int true "Video ID"
// @Success      200 {object} types.MessageResponse
// @Failure      404 {object} types.ErrorResponse "Video not found"
// @Failure      500 {object} types.ErrorResponse "Original file could not be removed; record kept"
// @Router       /api/v1/videos/{id} [delete]
func DeleteVideo(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		if err := deps.VideoService.DeleteAsset(c.Request.Context(), id); err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.MessageResponse{Status: types.StatusOK, Message: "Video deleted"})
	}
}
