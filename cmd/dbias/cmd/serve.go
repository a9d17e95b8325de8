package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/d-bias/dbias-go/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	Long: `Start the HTTP server backing the browser dashboard. The server
proxies analysis submissions to the backend through the same throttled
pipeline the CLI uses and serves cached and historical results.

Examples:
  # Start with defaults (:8080)
  dbias serve

  # Start on a custom address
  dbias serve --addr 127.0.0.1:3000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address (default from config, :8080)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	pipeline, cleanup, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	server := api.NewServer(pipeline, api.WithLogger(log))

	ctx, cancel := signalContext()
	defer cancel()

	log.Info("server started",
		slog.String("addr", addr),
		slog.String("backend", cfg.Backend.BaseURL),
	)

	if err := server.Serve(ctx, addr); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
