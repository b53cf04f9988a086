package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetConfig clears viper and the init guard so each case starts fresh
func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	once = sync.Once{}
	initErr = nil
	t.Cleanup(func() {
		viper.Reset()
		once = sync.Once{}
		initErr = nil
	})
}

func writeSettings(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "settings.yaml"), []byte(content), 0644))
	chdir(t, dir)
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T)
		wantErr bool
		check   func(t *testing.T)
	}{
		{
			name: "missing config file uses defaults",
			setup: func(t *testing.T) {
				chdir(t, t.TempDir())
			},
			check: func(t *testing.T) {
				cfg, err := GetConfig()
				require.NoError(t, err)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "filesystem", cfg.Storage.Backend)
				assert.Equal(t, int64(100<<20), cfg.Storage.MaxUploadSize)
				assert.Equal(t, []string{"video/mp4", "video/webm", "video/ogg"}, cfg.Storage.AllowedMimeTypes)
				assert.Equal(t, "http://localhost:7860/process", cfg.Depth.InferenceURL)
				assert.Equal(t, 10*time.Minute, cfg.Depth.Timeout)
				assert.Equal(t, 4, cfg.Depth.NumDenoisingSteps)
				assert.InDelta(t, 1.2, cfg.Depth.GuidanceScale, 0.0001)
				assert.Equal(t, 512, cfg.Depth.MaxResolution)
				assert.Equal(t, 220, cfg.Depth.MaxFrames)
				assert.Equal(t, "libx264", cfg.Transcode.Codec)
				assert.Equal(t, 23, cfg.Transcode.CRF)
			},
		},
		{
			name: "load from settings.yaml",
			setup: func(t *testing.T) {
				writeSettings(t, `
server:
  port: 9000
depth:
  inference_url: "http://inference.internal:7860/process"
  max_frames: 120
`)
			},
			check: func(t *testing.T) {
				cfg, err := GetConfig()
				require.NoError(t, err)
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, "http://inference.internal:7860/process", cfg.Depth.InferenceURL)
				assert.Equal(t, 120, cfg.Depth.MaxFrames)
				assert.Equal(t, 4, cfg.Depth.NumDenoisingSteps)
			},
		},
		{
			name: "environment variable override",
			setup: func(t *testing.T) {
				chdir(t, t.TempDir())
				t.Setenv("DEPTHTRACK_SERVER_PORT", "9090")
				t.Setenv("DEPTHTRACK_DEPTH_TIMEOUT", "90s")
			},
			check: func(t *testing.T) {
				assert.Equal(t, 9090, GetInt("server.port"))
				assert.Equal(t, 90*time.Second, GetDuration("depth.timeout"))
			},
		},
		{
			name: "gcs backend without bucket is rejected",
			setup: func(t *testing.T) {
				writeSettings(t, `
storage:
  backend: gcs
`)
			},
			wantErr: true,
		},
		{
			name: "unknown storage backend is rejected",
			setup: func(t *testing.T) {
				writeSettings(t, `
storage:
  backend: ftp
`)
			},
			wantErr: true,
		},
		{
			name: "temp age not longer than depth timeout is rejected",
			setup: func(t *testing.T) {
				writeSettings(t, `
storage:
  max_temp_age: 5m
depth:
  timeout: 10m
`)
			},
			wantErr: true,
		},
		{
			name: "zero temp age falls back to default",
			setup: func(t *testing.T) {
				writeSettings(t, `
storage:
  max_temp_age: 0s
`)
			},
			check: func(t *testing.T) {
				assert.Equal(t, DefaultMaxTempAge, GetDuration("storage.max_temp_age"))
			},
		},
		{
			name: "invalid worker count is corrected",
			setup: func(t *testing.T) {
				writeSettings(t, `
processing:
  workers: 0
`)
			},
			check: func(t *testing.T) {
				assert.Equal(t, 1, GetInt("processing.workers"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t)
			tt.setup(t)

			err := Init()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tt.check != nil {
				tt.check(t)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				Server:  ServerConfig{Host: "localhost", Port: 8080},
				Storage: StorageConfig{Backend: "filesystem"},
				Depth:   DepthConfig{InferenceURL: "http://localhost:7860/process"},
			},
		},
		{
			name: "invalid port",
			config: &Config{
				Server: ServerConfig{Host: "localhost", Port: 0},
			},
			wantErr: true,
		},
		{
			name: "gcs without bucket",
			config: &Config{
				Server:  ServerConfig{Port: 8080},
				Storage: StorageConfig{Backend: "gcs"},
			},
			wantErr: true,
		},
		{
			name: "temp age shorter than depth timeout",
			config: &Config{
				Server:  ServerConfig{Port: 8080},
				Storage: StorageConfig{MaxTempAge: time.Minute},
				Depth:   DepthConfig{Timeout: 10 * time.Minute},
			},
			wantErr: true,
		},
		{
			name: "relative inference url",
			config: &Config{
				Server: ServerConfig{Port: 8080},
				Depth:  DepthConfig{InferenceURL: "process"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateAppliesFallbacks(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: 8080}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Processing.Workers)
	assert.Equal(t, int64(DefaultMaxUploadSize), cfg.Storage.MaxUploadSize)
	assert.Equal(t, DefaultMaxTempAge, cfg.Storage.MaxTempAge)
}

func TestConfig_ValidateRejectsZeroTempAgeWithLongTimeout(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 8080},
		Depth:  DepthConfig{Timeout: 12 * time.Hour},
	}
	assert.Error(t, cfg.Validate())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24)
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
