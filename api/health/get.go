package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
)

// Get handles health check requests
// @Summary      Health check
// @Description  Reports service and database status
// @Tags         health
// @Produce      json
// @Success      200 {object} object{status=string,timestamp=string,database=object}
// @Failure      503 {object} object{status=string,timestamp=string,database=object}
// @Router       /health [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus, healthy := getDatabaseStatus(deps)

		response := gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"database":  dbStatus,
		}

		status := http.StatusOK
		if !healthy {
			response["status"] = "unhealthy"
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, response)
	}
}

// getDatabaseStatus returns the database connection status
func getDatabaseStatus(deps *types.Dependencies) (gin.H, bool) {
	if deps == nil || deps.DB == nil || deps.DB.DB == nil {
		return gin.H{"status": "not configured"}, true
	}

	if err := deps.DB.HealthCheck(); err != nil {
		deps.Log().Warn("database health check failed", "error", err)
		return gin.H{"status": "unhealthy", "error": err.Error()}, false
	}

	return gin.H{"status": "healthy"}, true
}
