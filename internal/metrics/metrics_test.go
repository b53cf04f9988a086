package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveDepthRun(t *testing.T) {
	beforeOK := testutil.ToFloat64(DepthRunsTotal.WithLabelValues("succeeded"))
	beforeFail := testutil.ToFloat64(DepthRunsTotal.WithLabelValues("failed"))
	beforeStage := testutil.ToFloat64(DepthStageFailures.WithLabelValues("transcode"))

	ObserveDepthRun("", time.Second)
	ObserveDepthRun("transcode", time.Second)

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(DepthRunsTotal.WithLabelValues("succeeded")))
	assert.Equal(t, beforeFail+1, testutil.ToFloat64(DepthRunsTotal.WithLabelValues("failed")))
	assert.Equal(t, beforeStage+1, testutil.ToFloat64(DepthStageFailures.WithLabelValues("transcode")))
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/videos/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/videos/:id", "204"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/videos/3", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/videos/:id", "204")))
}
