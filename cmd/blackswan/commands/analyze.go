package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score one (keyword, date) for black-swan severity",
	Long: `Runs the three signals for one keyword and date and prints the
composite score (0-6) and its classification.

Signals:
- spx:    S&P 500 daily return percentile over the prior year
- market: prediction-market volume spike, or the VIX fallback
- trends: search-interest spike for the keyword

Example:
  go run ./cmd/blackswan analyze --keyword "SVB collapse" --date 2023-03-13
  go run ./cmd/blackswan analyze --keyword "Brexit" --date 2016-06-24 --json`,
	RunE: runAnalyze,
}

var analyzeBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score many (keyword, date) pairs against the prediction market",
	Long: `Reads a JSON array of {"keyword", "date"} objects and scores each
against the prediction market, one at a time.

Example:
  go run ./cmd/blackswan analyze batch --file events.json`,
	RunE: runAnalyzeBatch,
}

var (
	analyzeKeyword string
	analyzeDate    string
	analyzeJSON    bool
	batchFile      string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.AddCommand(analyzeBatchCmd)

	analyzeCmd.Flags().StringVar(&analyzeKeyword, "keyword", "", "event keyword (required)")
	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "event date YYYY-MM-DD (required)")
	analyzeCmd.PersistentFlags().BoolVar(&analyzeJSON, "json", false, "print the raw result as JSON")
	analyzeBatchCmd.Flags().StringVar(&batchFile, "file", "", "JSON file of {keyword, date} items (required)")

	analyzeCmd.MarkFlagRequired("keyword")
	analyzeCmd.MarkFlagRequired("date")
	analyzeBatchCmd.MarkFlagRequired("file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	started := time.Now()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectDB(cmd.Context()); err != nil {
		return err
	}

	result, err := a.orchestrator().Analyze(cmd.Context(), analyzeKeyword, analyzeDate)
	if err != nil {
		return err
	}

	if analyzeJSON {
		return PrintJSON(result)
	}

	PrintHeader("Black Swan Analysis", [][2]string{
		{"Keyword", result.Keyword},
		{"Date", result.Date},
		{"Request", result.Metadata.RequestID},
	})

	s := result.Scores
	fmt.Printf("  SPX       : %d/2 %s\n", s.SPX, signalNote(result.Details.SPX.Success, result.Details.SPX.Error))
	fmt.Printf("  Market    : %d/2 (source: %s)\n", s.Market, s.MarketSource)
	fmt.Printf("  Trends    : %d/2 %s\n", s.Trends, signalNote(result.Details.Trends.Success, result.Details.Trends.Error))
	PrintSeparator()
	fmt.Printf("  Total     : %d/%d  %s %s\n", s.Total, s.MaxPossible, classificationIcon(result.Classification), result.Classification)
	fmt.Printf("  Signals   : %d/3 succeeded\n", result.Metadata.SuccessfulMetrics)

	PrintCompletion("Analysis", started)
	return nil
}

func signalNote(ok bool, errMsg string) string {
	if ok {
		return ""
	}
	return fmt.Sprintf("(failed: %s)", errMsg)
}

func runAnalyzeBatch(cmd *cobra.Command, args []string) error {
	started := time.Now()

	data, err := os.ReadFile(batchFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", batchFile, err)
	}
	var items []contracts.BatchItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("parse %s: %w", batchFile, err)
	}
	if len(items) == 0 {
		PrintWarning("No items in " + batchFile)
		return nil
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result := a.batchRunner().Run(cmd.Context(), items)

	if analyzeJSON {
		return PrintJSON(result)
	}

	PrintHeader("Prediction Market Batch", [][2]string{
		{"File", batchFile},
		{"Items", fmt.Sprintf("%d", result.TotalEvents)},
	})
	for i, r := range result.Results {
		if !r.Success {
			fmt.Printf("  [%d/%d] ❌ %s %s: %s\n", i+1, result.TotalEvents, r.Date, r.Keyword, r.Error)
			continue
		}
		fmt.Printf("  [%d/%d] ✅ %s %s: score %d\n", i+1, result.TotalEvents, r.Date, r.Keyword, r.Result.Score)
	}
	PrintSeparator()
	fmt.Printf("  Successful: %d, Failed: %d\n", result.Successful, result.Failed)

	PrintCompletion("Batch", started)
	return nil
}
