package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Environment  string           `mapstructure:"environment"`
	Server       ServerConfig     `mapstructure:"server"`
	Database     DatabaseConfig   `mapstructure:"database"`
	Storage      StorageConfig    `mapstructure:"storage"`
	Depth        DepthConfig      `mapstructure:"depth"`
	Transcode    TranscodeConfig  `mapstructure:"transcode"`
	Processing   ProcessingConfig `mapstructure:"processing"`
	RateLimiting RateLimitConfig  `mapstructure:"rate_limiting"`
	Security     SecurityConfig   `mapstructure:"security"`
	Logging      LoggingConfig    `mapstructure:"logging"`
	Monitoring   MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path                  string        `mapstructure:"path"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
	BusyTimeout           time.Duration `mapstructure:"busy_timeout"`
	EnableWAL             bool          `mapstructure:"enable_wal"`
	LogQueries            bool          `mapstructure:"log_queries"`
}

// StorageConfig controls where original and derived media live
type StorageConfig struct {
	Backend          string        `mapstructure:"backend"`
	MediaDir         string        `mapstructure:"media_dir"`
	TempDir          string        `mapstructure:"temp_dir"`
	MaxUploadSize    int64         `mapstructure:"max_upload_size"`
	AllowedMimeTypes []string      `mapstructure:"allowed_mime_types"`
	MaxTempAge       time.Duration `mapstructure:"max_temp_age"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval"`
	GCS              GCSConfig     `mapstructure:"gcs"`
}

// GCSConfig selects a bucket for the gcs storage backend
type GCSConfig struct {
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Endpoint string `mapstructure:"endpoint"`
}

// DepthConfig holds the inference service endpoint and its fixed parameter set
type DepthConfig struct {
	InferenceURL      string        `mapstructure:"inference_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	NumDenoisingSteps int           `mapstructure:"num_denoising_steps"`
	GuidanceScale     float64       `mapstructure:"guidance_scale"`
	MaxResolution     int           `mapstructure:"max_resolution"`
	MaxFrames         int           `mapstructure:"max_frames"`
}

// TranscodeConfig holds the encoder binary and its fixed arguments
type TranscodeConfig struct {
	FFmpegPath string `mapstructure:"ffmpeg_path"`
	Codec      string `mapstructure:"codec"`
	Preset     string `mapstructure:"preset"`
	CRF        int    `mapstructure:"crf"`
}

// ProcessingConfig contains background worker settings
type ProcessingConfig struct {
	Workers      int           `mapstructure:"workers"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	JobRetention time.Duration `mapstructure:"job_retention"`
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	Enabled   bool           `mapstructure:"enabled"`
	Endpoints map[string]int `mapstructure:"endpoints"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	EnableCORS  bool     `mapstructure:"enable_cors"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	CORSMethods []string `mapstructure:"cors_methods"`
	CORSHeaders []string `mapstructure:"cors_headers"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MonitoringConfig contains monitoring settings
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}
