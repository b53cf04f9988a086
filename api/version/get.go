package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
)

// Name is the service name reported by /version
const Name = "DepthTrack API"

// Info is the document served by /version and printed by `depthtrack-api version --json`
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	GitCommit   string `json:"gitCommit"`
	BuildTime   string `json:"buildTime"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// NewInfo fills in defaults for fields the build did not stamp
func NewInfo(build types.BuildInfo) Info {
	info := Info{
		Name:        Name,
		Version:     build.Version,
		GitCommit:   build.GitCommit,
		BuildTime:   build.BuildTime,
		Description: "Video asset store with depth generation and tracking annotations",
		Status:      "running",
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.GitCommit == "" {
		info.GitCommit = "unknown"
	}
	if info.BuildTime == "" {
		info.BuildTime = "unknown"
	}
	return info
}

// Get handles version requests
// @Summary      Version
// @Description  Build information for the running service
// @Tags         health
// @Produce      json
// @Success      200 {object} version.Info
// @Router       /version [get]
func Get(build types.BuildInfo) gin.HandlerFunc {
	info := NewInfo(build)
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, info)
	}
}
