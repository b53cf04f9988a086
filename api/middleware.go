package api

import (
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/killallgit/depthtrack-api/api/types"
	"github.com/killallgit/depthtrack-api/pkg/config"
	apperrors "github.com/killallgit/depthtrack-api/pkg/errors"
	"github.com/killallgit/depthtrack-api/pkg/logger"
	"golang.org/x/time/rate"
)

// clientLimiter holds a rate limiter and its last accessed time
type clientLimiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (cl *clientLimiter) allow(now time.Time) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (cl *clientLimiter) idleSince(now time.Time) time.Duration {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return now.Sub(cl.lastSeen)
}

// CORS builds the CORS middleware from the security settings
func CORS(sec config.SecurityConfig) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(sec.CORSMethods) > 0 {
		cfg.AllowMethods = sec.CORSMethods
	}
	if len(sec.CORSHeaders) > 0 {
		cfg.AllowHeaders = sec.CORSHeaders
	}
	cfg.ExposeHeaders = []string{"Content-Length", "Content-Range", "Accept-Ranges"}
	cfg.MaxAge = 24 * time.Hour

	if len(sec.CORSOrigins) == 0 || (len(sec.CORSOrigins) == 1 && sec.CORSOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = sec.CORSOrigins
	}
	return cors.New(cfg)
}

// RequestLogger logs one line per request
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", kv...)
		case status >= http.StatusBadRequest:
			log.Warn("request", kv...)
		default:
			log.Debug("request", kv...)
		}
	}
}

// RequestSizeLimitWithSize caps JSON and form bodies. Multipart uploads are
// left to the per-route limit set up by UploadSizeLimit.
func RequestSizeLimitWithSize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isBodyMethod(c.Request.Method) && !isMultipart(c.Request) {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// UploadSizeLimit caps a multipart upload at maxFileBytes plus room for the form envelope
func UploadSizeLimit(maxFileBytes int64) gin.HandlerFunc {
	const envelope = 1 << 20
	return func(c *gin.Context) {
		if isBodyMethod(c.Request.Method) {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFileBytes+envelope)
		}
		c.Next()
	}
}

func isBodyMethod(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
}

// RateLimiters tracks one token bucket per client and endpoint class
type RateLimiters struct {
	limiters sync.Map
	stop     chan struct{}
	once     sync.Once
	stopOnce sync.Once
	idle     time.Duration
}

// NewRateLimiters creates an empty limiter registry
func NewRateLimiters() *RateLimiters {
	return &RateLimiters{stop: make(chan struct{}), idle: 10 * time.Minute}
}

// Stop ends the idle limiter sweep
func (r *RateLimiters) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// PerClientRateLimit allows perMinute requests per client for the named endpoint class.
// A non-positive perMinute disables limiting.
func (r *RateLimiters) PerClientRateLimit(endpoint string, perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	r.once.Do(func() {
		go r.cleanupOldRateLimiters()
	})

	limit := rate.Limit(float64(perMinute) / 60)
	burst := int(math.Max(1, math.Ceil(float64(perMinute)/10)))

	return func(c *gin.Context) {
		key := endpoint + "|" + c.ClientIP()
		now := time.Now()

		value, _ := r.limiters.LoadOrStore(key, &clientLimiter{
			limiter:  rate.NewLimiter(limit, burst),
			lastSeen: now,
		})

		if !value.(*clientLimiter).allow(now) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, types.ErrorResponse{
				Status:  types.StatusError,
				Message: "Rate limit exceeded. Please slow down your requests.",
				Error:   string(apperrors.ErrCodeAPIRateLimit),
			})
			return
		}
		c.Next()
	}
}

func (r *RateLimiters) cleanupOldRateLimiters() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(time.Now())
		case <-r.stop:
			return
		}
	}
}

func (r *RateLimiters) sweep(now time.Time) int {
	removed := 0
	r.limiters.Range(func(key, value interface{}) bool {
		if value.(*clientLimiter).idleSince(now) > r.idle {
			r.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}
