package videos

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
	"github.com/killallgit/depthtrack-api/internal/services/videos"
)

// ListVideos returns one page of videos
// @Summary      List videos
// @Description  Paginated list of uploaded videos with optional name search and sorting
// @Tags         videos
// @Produce      json
// @Param        page query int false "Page number (default 1)"
// @Param        limit query int false "Items per page (default 10, max 100)"
// @Param        search query string false "Substring match on the original file name"
// @Param        sortColumn query string false "createdAt, updatedAt, originalName, mimeType, size, depthState or id"
// @Param        sortDirection query string false "asc or desc"
// @Success      200 {object} types.VideoListResponse
// @Failure      400 {object} types.ErrorResponse "Invalid sort field or direction"
// @Failure      500 {object} types.ErrorResponse "Internal server error"
// @Router       /api/v1/videos [get]
func ListVideos(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Unparseable numbers fall back to defaults, the service clamps the rest
		page, _ := strconv.Atoi(c.Query("page"))
		limit, _ := strconv.Atoi(c.Query("limit"))

		result, err := deps.VideoService.ListAssets(c.Request.Context(), videos.ListOptions{
			Page:          page,
			Limit:         limit,
			Search:        c.Query("search"),
			SortColumn:    c.Query("sortColumn"),
			SortDirection: c.Query("sortDirection"),
		})
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.ToVideoListResponse(result))
	}
}
