package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <dataset.csv>",
	Short: "Upload a dataset without running analysis",
	Long: `Upload a dataset to the backend and print its shape. Useful for
checking that a file parses before committing to a full analysis run.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
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

	info, err := pipeline.Upload(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Uploaded: %d rows, %d columns\n", info.Rows, info.Cols)
	if len(info.Columns) > 0 {
		fmt.Fprintf(out, "Columns:  %s\n", strings.Join(info.Columns, ", "))
	}
	return nil
}
