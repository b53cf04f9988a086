package version

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		build        types.BuildInfo
		expectedBody map[string]interface{}
	}{
		{
			name:  "reports build info",
			build: types.BuildInfo{Version: "1.2.0", GitCommit: "abc123"},
			expectedBody: map[string]interface{}{
				"name":      Name,
				"version":   "1.2.0",
				"gitCommit": "abc123",
				"status":    "running",
			},
		},
		{
			name: "defaults to dev",
			expectedBody: map[string]interface{}{
				"version": "dev",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			RegisterRoutes(router, &types.Dependencies{Build: tt.build})

			for _, path := range []string{"/", "/version"} {
				w := httptest.NewRecorder()
				router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				require.Equal(t, http.StatusOK, w.Code)

				var response map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				for key, expectedValue := range tt.expectedBody {
					assert.Equal(t, expectedValue, response[key], "Key: %s", key)
				}
			}
		})
	}
}

func TestNewInfo_Defaults(t *testing.T) {
	info := NewInfo(types.BuildInfo{})

	assert.Equal(t, Name, info.Name)
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "unknown", info.GitCommit)
	assert.Equal(t, "unknown", info.BuildTime)
}
