package videos

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
)

// UpdateVideo applies a partial annotation update
// @Summary      Update video annotations
// @Description  Overwrites only the fields present in the body. Depth generation state is never touched.
// @Tags         videos
// @Accept       json
// @Produce      json
// @Param        id path int true "Video ID"
// @Param        update body types.UpdateVideoRequest true "Fields to overwrite"
// @Success      200 {object} types.VideoResponse
// @Failure      400 {object} types.ErrorResponse "Invalid body or annotation"
// @Failure      404 {object} types.ErrorResponse "Video not found"
// @Router       /api/v1/videos/{id} [put]
func UpdateVideo(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		var req types.UpdateVideoRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		video, err := deps.VideoService.UpdateAnnotation(c.Request.Context(), id, req.ToAnnotationPatch())
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.ToVideoResponse(video))
	}
}
