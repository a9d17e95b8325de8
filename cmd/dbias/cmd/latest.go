package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent analysis",
	Long: `Fetch the most recent analysis from the backend. When the backend is
unreachable or has no result, the local cache is consulted instead.`,
	Args: cobra.NoArgs,
	RunE: runLatest,
}

var latestJSON bool

func init() {
	rootCmd.AddCommand(latestCmd)
	latestCmd.Flags().BoolVar(&latestJSON, "json", false,
		"print the full normalized record as JSON")
}

func runLatest(cmd *cobra.Command, _ []string) error {
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

	result, err := pipeline.Latest(ctx)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No analysis available yet.")
		return nil
	}

	if latestJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}
