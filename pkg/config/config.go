package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g. DEPTHTRACK_SERVER_PORT
const EnvPrefix = "DEPTHTRACK"

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		setDefaults()

		viper.SetEnvPrefix(EnvPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)

		if err := viper.ReadInConfig(); err != nil {
			// A missing file means defaults and env vars only
			if !os.IsNotExist(err) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
		}

		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	switch backend := viper.GetString("storage.backend"); backend {
	case "filesystem":
	case "gcs":
		if viper.GetString("storage.gcs.bucket") == "" {
			return fmt.Errorf("storage.gcs.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", backend)
	}

	if _, err := url.ParseRequestURI(viper.GetString("depth.inference_url")); err != nil {
		return fmt.Errorf("invalid depth.inference_url: %w", err)
	}

	if viper.GetDuration("depth.timeout") <= 0 {
		return fmt.Errorf("depth.timeout must be positive")
	}

	if viper.GetDuration("storage.max_temp_age") <= 0 {
		viper.Set("storage.max_temp_age", DefaultMaxTempAge)
	}
	if err := checkTempAge(viper.GetDuration("storage.max_temp_age"), viper.GetDuration("depth.timeout")); err != nil {
		return err
	}

	// Auto-correct invalid worker count
	if viper.GetInt("processing.workers") <= 0 {
		viper.Set("processing.workers", 1)
	}

	if viper.GetInt64("storage.max_upload_size") <= 0 {
		viper.Set("storage.max_upload_size", DefaultMaxUploadSize)
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Storage.Backend == "gcs" && c.Storage.GCS.Bucket == "" {
		return fmt.Errorf("storage.gcs.bucket is required for the gcs backend")
	}

	if c.Depth.InferenceURL != "" {
		if _, err := url.ParseRequestURI(c.Depth.InferenceURL); err != nil {
			return fmt.Errorf("invalid depth.inference_url: %w", err)
		}
	}

	if c.Storage.MaxTempAge <= 0 {
		c.Storage.MaxTempAge = DefaultMaxTempAge
	}
	if err := checkTempAge(c.Storage.MaxTempAge, c.Depth.Timeout); err != nil {
		return err
	}

	if c.Processing.Workers <= 0 {
		c.Processing.Workers = 1
	}

	if c.Storage.MaxUploadSize <= 0 {
		c.Storage.MaxUploadSize = DefaultMaxUploadSize
	}

	return nil
}

// DefaultMaxUploadSize caps a single video upload at 100 MB
const DefaultMaxUploadSize = 100 << 20

// DefaultMaxTempAge is how long a depth scratch directory may sit untouched before the janitor removes it
const DefaultMaxTempAge = 6 * time.Hour

// checkTempAge keeps the janitor away from scratch dirs of runs still waiting on inference
func checkTempAge(maxTempAge, depthTimeout time.Duration) error {
	if maxTempAge <= depthTimeout {
		return fmt.Errorf("storage.max_temp_age (%s) must be longer than depth.timeout (%s)", maxTempAge, depthTimeout)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 5*time.Minute)
	viper.SetDefault("server.write_timeout", 5*time.Minute)
	viper.SetDefault("server.shutdown_timeout", 30*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)
	viper.SetDefault("server.max_body_bytes", 10<<20)

	// Database defaults
	viper.SetDefault("database.path", "./data/depthtrack.db")
	// SQLite has a single writer; one pooled connection keeps writes serialized
	viper.SetDefault("database.max_connections", 1)
	viper.SetDefault("database.max_idle_connections", 1)
	viper.SetDefault("database.connection_max_lifetime", 0)
	viper.SetDefault("database.busy_timeout", 5*time.Second)
	viper.SetDefault("database.enable_wal", true)
	viper.SetDefault("database.log_queries", false)

	// Storage defaults
	viper.SetDefault("storage.backend", "filesystem")
	viper.SetDefault("storage.media_dir", "./uploads/videos")
	viper.SetDefault("storage.temp_dir", "./tmp")
	viper.SetDefault("storage.max_upload_size", DefaultMaxUploadSize)
	viper.SetDefault("storage.allowed_mime_types", []string{"video/mp4", "video/webm", "video/ogg"})
	viper.SetDefault("storage.max_temp_age", DefaultMaxTempAge)
	viper.SetDefault("storage.cleanup_interval", 30*time.Minute)
	viper.SetDefault("storage.gcs.bucket", "")
	viper.SetDefault("storage.gcs.prefix", "videos")
	viper.SetDefault("storage.gcs.endpoint", "")

	// Depth inference defaults
	viper.SetDefault("depth.inference_url", "http://localhost:7860/process")
	viper.SetDefault("depth.timeout", 10*time.Minute)
	viper.SetDefault("depth.num_denoising_steps", 4)
	viper.SetDefault("depth.guidance_scale", 1.2)
	viper.SetDefault("depth.max_resolution", 512)
	viper.SetDefault("depth.max_frames", 220)

	// Transcode defaults
	viper.SetDefault("transcode.ffmpeg_path", "ffmpeg")
	viper.SetDefault("transcode.codec", "libx264")
	viper.SetDefault("transcode.preset", "medium")
	viper.SetDefault("transcode.crf", 23)

	// Processing defaults
	viper.SetDefault("processing.workers", 2)
	viper.SetDefault("processing.poll_interval", 2*time.Second)
	viper.SetDefault("processing.job_retention", 7*24*time.Hour)

	// Rate limiting defaults
	viper.SetDefault("rate_limiting.enabled", true)
	viper.SetDefault("rate_limiting.endpoints", map[string]int{
		"upload":  10,
		"depth":   6,
		"default": 120,
	})

	// Security defaults
	viper.SetDefault("security.enable_cors", true)
	viper.SetDefault("security.cors_origins", []string{"*"})
	viper.SetDefault("security.cors_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors_headers", []string{"Content-Type", "Authorization", "Range"})

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
}
