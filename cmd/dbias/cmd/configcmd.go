package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the resolved configuration after merging defaults, config
files, environment variables and flags.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	type effectiveConfig struct {
		Log     any `yaml:"log"`
		Backend any `yaml:"backend"`
		Cache   any `yaml:"cache"`
		History any `yaml:"history"`
		Server  any `yaml:"server"`
	}
	// Re-key the sections so the output matches what a config file
	// would contain.
	out, err := yaml.Marshal(effectiveConfig{
		Log: map[string]any{
			"level":  cfg.Log.Level,
			"format": cfg.Log.Format,
			"file":   cfg.Log.File,
		},
		Backend: map[string]any{
			"base_url":            cfg.Backend.BaseURL,
			"analyze_timeout":     cfg.Backend.AnalyzeTimeout,
			"request_timeout":     cfg.Backend.RequestTimeout,
			"max_retries":         cfg.Backend.MaxRetries,
			"min_submit_interval": cfg.Backend.MinSubmitInterval,
		},
		Cache: map[string]any{
			"dir": cfg.Cache.Dir,
		},
		History: map[string]any{
			"enabled": cfg.History.Enabled,
			"path":    cfg.History.Path,
		},
		Server: map[string]any{
			"addr": cfg.Server.Addr,
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}
