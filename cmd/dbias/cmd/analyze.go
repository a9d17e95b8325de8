package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/d-bias/dbias-go/internal/core"
	"github.com/d-bias/dbias-go/internal/service"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dataset.csv>",
	Short: "Submit a dataset for bias analysis",
	Long: `Submit a tabular dataset to the analysis backend and print the
normalized bias report. Results are persisted to the local cache and,
when enabled, to the history store.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeExcluded []string
	analyzeSummary  bool
	analyzePlots    string
	analyzeJSON     bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringSliceVar(&analyzeExcluded, "exclude", nil,
		"columns to exclude from bias detection")
	analyzeCmd.Flags().BoolVar(&analyzeSummary, "summary", false,
		"ask the backend for AI-generated explanations")
	analyzeCmd.Flags().StringVar(&analyzePlots, "plots", "none",
		"plot payloads to request (none, json, png, both)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false,
		"print the full normalized record as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	result, err := pipeline.Analyze(ctx, service.AnalyzeRequest{
		FilePath:    args[0],
		Excluded:    analyzeExcluded,
		RunSummary:  analyzeSummary,
		ReturnPlots: analyzePlots,
	})
	if err != nil {
		return err
	}

	if analyzeJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, res *core.AnalysisResult) {
	fmt.Fprintf(w, "Dataset:        %s\n", res.DatasetName)
	fmt.Fprintf(w, "Fairness score: %.1f (%s)\n", res.FairnessScore, res.FairnessLabel)
	fmt.Fprintf(w, "Bias risk:      %s\n", res.BiasRisk)
	fmt.Fprintf(w, "Reliability:    %s\n", res.ReliabilityLevel)
	if res.OverallMessage != "" {
		fmt.Fprintf(w, "\n%s\n", res.OverallMessage)
	}

	if len(res.DetectedBiases) == 0 {
		fmt.Fprintln(w, "\nNo biases detected.")
	} else {
		fmt.Fprintf(w, "\nDetected biases (%d):\n", res.TotalBiases)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  TYPE\tCOLUMN\tSEVERITY\tDESCRIPTION")
		for _, b := range res.DetectedBiases {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", b.BiasType, b.Column, b.Severity, b.Description)
		}
		tw.Flush()
	}

	if len(res.Assessment.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, rec := range res.Assessment.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
	if res.Assessment.Conclusion != "" {
		fmt.Fprintf(w, "\n%s\n", res.Assessment.Conclusion)
	}
}
