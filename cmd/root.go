package cmd

import (
	"fmt"
	"os"

	"github.com/killallgit/depthtrack-api/pkg/config"
	"github.com/killallgit/depthtrack-api/pkg/logger"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "depthtrack-api",
	Short: "DepthTrack API server",
	Long: `DepthTrack API - video asset store with depth generation

Stores uploaded videos, runs them through a depth inference service to
produce a browser-playable depth video, and keeps per-video object
tracking annotations.

Features:
  • Video upload, listing, search and streaming
  • Asynchronous, single-flight depth generation per video
  • Tracking annotations with field-scoped updates
  • Filesystem or Cloud Storage media backends`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates a new root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs")
}

// loadConfig initializes configuration for commands that need it
func loadConfig() (*config.Config, error) {
	if err := config.Init(); err != nil {
		return nil, fmt.Errorf("error initializing config: %w", err)
	}
	return config.GetConfig()
}

// newLogger builds the process logger. Flags win over the config file when set.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*logger.Logger, error) {
	level := cfg.Logging.Level
	if f := cmd.Flags().Lookup("log-level"); f != nil && (f.Changed || level == "") {
		level = f.Value.String()
	}

	json := cfg.Logging.Format == "json"
	if f := cmd.Flags().Lookup("json-logs"); f != nil && f.Changed {
		json, _ = cmd.Flags().GetBool("json-logs")
	}

	return logger.New(level, json)
}
