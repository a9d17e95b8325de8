package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the analysis backend is reachable",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, _ []string) error {
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

	ctx, cancel := signalContext()
	defer cancel()

	if err := pipeline.Ping(ctx); err != nil {
		return fmt.Errorf("backend %s is not reachable: %w", cfg.Backend.BaseURL, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Backend %s is up.\n", cfg.Backend.BaseURL)
	return nil
}
