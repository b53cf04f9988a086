package videos

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
)

// RegisterRoutes registers video asset routes. upload and depth carry their own rate limits.
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies, upload, depth gin.HandlerFunc) {
	router.GET("", ListVideos(deps))
	router.POST("", chain(upload, UploadVideo(deps))...)
	router.GET("/:id", GetVideo(deps))
	router.PUT("/:id", UpdateVideo(deps))
	router.DELETE("/:id", DeleteVideo(deps))

	router.POST("/:id/generate-depth", chain(depth, GenerateDepth(deps))...)
	router.GET("/:id/depth-job", GetDepthJob(deps))

	router.GET("/:id/file", StreamOriginal(deps))
	router.GET("/:id/depth", StreamDepth(deps))
}

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
