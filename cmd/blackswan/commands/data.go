package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/internal/s0_data/collector"
)

// dataCmd represents the data command
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Market data sync",
	Long: `Pulls S&P 500 history into daily_snapshots and universe bars into
stock_prices.

Example:
  go run ./cmd/blackswan data sync --from 2019-01-01
  go run ./cmd/blackswan data sync --from 2024-01-01 --to 2024-06-30 --workers 8`,
}

var (
	dataSyncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Sync the benchmark and every universe ticker",
		RunE:  runDataSync,
	}

	dataFrom    string
	dataTo      string
	dataWorkers int
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataSyncCmd)

	dataSyncCmd.Flags().StringVar(&dataFrom, "from", "", "start date YYYY-MM-DD (required)")
	dataSyncCmd.Flags().StringVar(&dataTo, "to", "", "end date YYYY-MM-DD (default: today)")
	dataSyncCmd.Flags().IntVar(&dataWorkers, "workers", collector.DefaultWorkers, "concurrent tickers")

	dataSyncCmd.MarkFlagRequired("from")
}

func runDataSync(cmd *cobra.Command, args []string) error {
	started := time.Now()

	from, err := time.Parse(contracts.DateLayout, dataFrom)
	if err != nil {
		return contracts.NewValidationError("from", "must be YYYY-MM-DD")
	}
	to := time.Now()
	if dataTo != "" {
		to, err = time.Parse(contracts.DateLayout, dataTo)
		if err != nil {
			return contracts.NewValidationError("to", "must be YYYY-MM-DD")
		}
	}
	if from.After(to) {
		return contracts.NewValidationError("from", "must not be after to")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectDB(cmd.Context()); err != nil {
		return err
	}

	universe := a.universe()
	PrintHeader("Market Data Sync", [][2]string{
		{"Period", fmt.Sprintf("%s ~ %s", from.Format(contracts.DateLayout), to.Format(contracts.DateLayout))},
		{"Index", a.cfg.Yahoo.IndexSymbol},
		{"Tickers", fmt.Sprintf("%d", universe.Count())},
		{"Workers", fmt.Sprintf("%d", dataWorkers)},
	})

	report, err := a.collector().SyncAll(cmd.Context(), a.cfg.Yahoo.IndexSymbol, universe.Tickers, from, to, collector.Config{Workers: dataWorkers})
	if report != nil {
		for _, r := range report.Tickers {
			if r.Error != "" {
				fmt.Printf("  ❌ %-8s %s\n", r.Ticker, r.Error)
			} else if r.Rejected > 0 {
				fmt.Printf("  ⚠️  %-8s %d rows, %d rejected\n", r.Ticker, r.Rows, r.Rejected)
			}
		}
		PrintSeparator()
		fmt.Printf("  Snapshots : %d\n", report.SnapshotRows)
		fmt.Printf("  Tickers   : %d ok, %d failed\n", report.Succeeded, report.Failed)
	}
	if err != nil {
		return fmt.Errorf("sync %s: %w", a.cfg.Yahoo.IndexSymbol, err)
	}

	PrintCompletion("Sync", started)
	return nil
}
