package api

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/pkg/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name            string
		security        config.SecurityConfig
		method          string
		origin          string
		expectedStatus  int
		expectedOrigin  string
		expectedMethods string
	}{
		{
			name: "preflight with wildcard origin",
			security: config.SecurityConfig{
				CORSOrigins: []string{"*"},
				CORSMethods: []string{"GET", "POST"},
				CORSHeaders: []string{"Content-Type"},
			},
			method:          http.MethodOptions,
			origin:          "https://frontend.test",
			expectedStatus:  http.StatusNoContent,
			expectedOrigin:  "*",
			expectedMethods: "GET,POST",
		},
		{
			name: "allowed origin on GET",
			security: config.SecurityConfig{
				CORSOrigins: []string{"https://app.example.com"},
				CORSMethods: []string{"GET"},
			},
			method:         http.MethodGet,
			origin:         "https://app.example.com",
			expectedStatus: http.StatusOK,
			expectedOrigin: "https://app.example.com",
		},
		{
			name: "unknown origin is refused",
			security: config.SecurityConfig{
				CORSOrigins: []string{"https://app.example.com"},
				CORSMethods: []string{"GET"},
			},
			method:         http.MethodGet,
			origin:         "https://evil.example.com",
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORS(tt.security))
			router.Any("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.expectedMethods != "" {
				assert.Equal(t, tt.expectedMethods, w.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}

// bodyReader reports whether the handler hit the body limit
func bodyReader(c *gin.Context) {
	_, err := io.ReadAll(c.Request.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "success"})
}

func TestRequestSizeLimitWithSize(t *testing.T) {
	gin.SetMode(gin.TestMode)

	customLimit := int64(512 * 1024)

	tests := []struct {
		name           string
		bodySize       int
		contentType    string
		expectedStatus int
	}{
		{"under limit", 256 * 1024, "application/json", http.StatusOK},
		{"at limit", 512 * 1024, "application/json", http.StatusOK},
		{"over limit", 1024 * 1024, "application/json", http.StatusRequestEntityTooLarge},
		{"multipart is left to the upload limit", 1024 * 1024, "multipart/form-data; boundary=x", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RequestSizeLimitWithSize(customLimit))
			router.POST("/test", bodyReader)

			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("a", tt.bodySize)))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestUploadSizeLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/upload", UploadSizeLimit(1024), bodyReader)

	send := func(size int) int {
		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("a", size)))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	// the envelope allowance sits on top of the file limit
	assert.Equal(t, http.StatusOK, send(512*1024))
	assert.Equal(t, http.StatusRequestEntityTooLarge, send(3<<20))
}

func TestPerClientRateLimit(t *testing.T) {
	defer goleak.VerifyNone(t)
	gin.SetMode(gin.TestMode)

	limiters := NewRateLimiters()
	defer limiters.Stop()

	router := gin.New()
	// 10 per minute gives a burst of one
	router.POST("/depth", limiters.PerClientRateLimit("depth", 10), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	router.POST("/upload", limiters.PerClientRateLimit("upload", 10), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	send := func(path, ip string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusAccepted, send("/depth", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("/depth", "10.0.0.1"))
	// other clients and other endpoint classes have their own buckets
	assert.Equal(t, http.StatusAccepted, send("/depth", "10.0.0.2"))
	assert.Equal(t, http.StatusCreated, send("/upload", "10.0.0.1"))
}

func TestPerClientRateLimit_Disabled(t *testing.T) {
	limiters := NewRateLimiters()
	defer limiters.Stop()

	router := gin.New()
	router.GET("/x", limiters.PerClientRateLimit("default", 0), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiters_Sweep(t *testing.T) {
	limiters := NewRateLimiters()
	defer limiters.Stop()

	router := gin.New()
	router.GET("/x", limiters.PerClientRateLimit("default", 60), func(c *gin.Context) {})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, 0, limiters.sweep(time.Now()))
	assert.Equal(t, 1, limiters.sweep(time.Now().Add(time.Hour)))
}
