package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/viper"

	"github.com/d-bias/dbias-go/internal/adapters/cache"
	"github.com/d-bias/dbias-go/internal/adapters/history"
	"github.com/d-bias/dbias-go/internal/config"
	"github.com/d-bias/dbias-go/internal/logging"
	"github.com/d-bias/dbias-go/internal/service"
)

// loadConfig resolves and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logging.Logger {
	out := os.Stderr
	if cfg.Log.File != "" {
		if f, err := os.OpenFile(cfg.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640); err == nil {
			out = f
		}
	}
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: out,
	})
}

// buildPipeline wires the configured pipeline and returns a cleanup
// function closing any opened stores.
func buildPipeline(cfg *config.Config, log *logging.Logger) (*service.Pipeline, func(), error) {
	opts := []service.PipelineOption{service.WithLogger(log)}
	cleanup := func() {}

	if cfg.Cache.Dir != "" {
		opts = append(opts, service.WithCache(
			cache.NewStore(filepath.Join(cfg.Cache.Dir, cache.DefaultFileName))))
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening history store: %w", err)
		}
		opts = append(opts, service.WithHistory(store))
		cleanup = func() {
			_ = store.Close()
		}
	}

	pipeline := service.NewPipeline(service.Config{
		BaseURL:            cfg.Backend.BaseURL,
		AnalyzeTimeout:     cfg.Backend.AnalyzeTimeoutDuration(),
		LightweightTimeout: cfg.Backend.RequestTimeoutDuration(),
		MaxRetries:         cfg.Backend.MaxRetries,
		MinSubmitInterval:  cfg.Backend.MinSubmitIntervalDuration(),
	}, opts...)

	return pipeline, cleanup, nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
