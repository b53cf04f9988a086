package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/killallgit/depthtrack-api/api/health"
	"github.com/killallgit/depthtrack-api/api/types"
	"github.com/killallgit/depthtrack-api/api/version"
	"github.com/killallgit/depthtrack-api/api/videos"
	_ "github.com/killallgit/depthtrack-api/docs/swagger"
	"github.com/killallgit/depthtrack-api/pkg/config"
)

// Rate limit classes in rate_limiting.endpoints
const (
	rateLimitUpload  = "upload"
	rateLimitDepth   = "depth"
	rateLimitDefault = "default"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, cfg *config.Config, limiters *RateLimiters) error {
	// Public routes, no rate limiting
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	if cfg.Monitoring.Enabled {
		path := cfg.Monitoring.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	docsGroup := engine.Group("/docs")
	docsGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	engine.NoRoute(NotFoundHandler())

	v1 := engine.Group("/api/v1")

	limit := func(endpoint string) gin.HandlerFunc {
		if !cfg.RateLimiting.Enabled {
			return nil
		}
		return limiters.PerClientRateLimit(endpoint, cfg.RateLimiting.Endpoints[endpoint])
	}

	videoGroup := v1.Group("/videos")
	if mw := limit(rateLimitDefault); mw != nil {
		videoGroup.Use(mw)
	}

	maxUpload := deps.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = cfg.Storage.MaxUploadSize
	}
	upload := UploadSizeLimit(maxUpload)
	if mw := limit(rateLimitUpload); mw != nil {
		upload = chainHandlers(mw, upload)
	}
	videos.RegisterRoutes(videoGroup, deps, upload, limit(rateLimitDepth))

	return nil
}

// chainHandlers runs handlers in order inside a single middleware, stopping if one aborts
func chainHandlers(handlers ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range handlers {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  types.StatusError,
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
