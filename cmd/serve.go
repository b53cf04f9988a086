package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the DepthTrack API server with the configured settings.

Runs the HTTP API, the depth generation workers and the temp file janitor.
Depth runs interrupted by a previous shutdown are marked failed on startup.

Example:
  depthtrack-api serve
  depthtrack-api serve --port 9090
  depthtrack-api serve --host 0.0.0.0 --port 8080 --log-level debug`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	log.Info("starting DepthTrack API", "version", Version, "addr", app.server.Addr(), "storage", cfg.Storage.Backend)
	if err := app.run(ctx); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}

	log.Info("server gracefully stopped")
	return nil
}
