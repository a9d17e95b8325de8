package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [analysis-id]",
	Short: "List past analyses or show one by id",
	Long: `Without arguments, list past analyses newest first. With an id,
print the full stored record for that analysis.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20,
		"maximum number of entries to list (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		result, err := pipeline.HistoryRecord(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(out, result)
	}

	entries, err := pipeline.History(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No analyses recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATASET\tDATE\tSCORE\tLABEL\tRISK\tBIASES")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%s\t%s\t%d\n",
			e.ID, e.DatasetName, e.UploadDate.Format("2006-01-02 15:04"),
			e.FairnessScore, e.FairnessLabel, e.BiasRisk, e.TotalBiases)
	}
	return tw.Flush()
}
