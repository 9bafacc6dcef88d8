package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Event momentum backtest",
	Long: `Ranks the ticker universe by momentum just before each tracked shock,
goes long the top N and short the bottom N, and measures the portfolio
against the S&P 500 over 3, 6 and 12 months.

Example:
  go run ./cmd/blackswan backtest run --momentum-days 5 --portfolio-size 20
  go run ./cmd/blackswan backtest results
  go run ./cmd/blackswan backtest positions 12`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the backtest, replacing stored results",
		Long: `Clears stored results and runs every tracked event.

Flags:
  --momentum-days   look-back window before the event (1-10)
  --portfolio-size  positions per side (5-50, step 5)

Example:
  go run ./cmd/blackswan backtest run
  go run ./cmd/blackswan backtest run --momentum-days 3 --portfolio-size 10`,
		RunE: runBacktest,
	}

	backtestResultsCmd = &cobra.Command{
		Use:   "results",
		Short: "Show stored results",
		RunE:  showBacktestResults,
	}

	backtestPositionsCmd = &cobra.Command{
		Use:   "positions [run_id]",
		Short: "Show positions of one stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showBacktestPositions,
	}

	backtestChartCmd = &cobra.Command{
		Use:   "chart [run_id]",
		Short: "Print the indexed portfolio vs benchmark series of one run",
		Args:  cobra.ExactArgs(1),
		RunE:  showBacktestChart,
	}

	backtestClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete stored results and positions",
		RunE:  clearBacktest,
	}

	backtestStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show stored data coverage for the universe",
		RunE:  showDataStatus,
	}

	// Flags
	backtestMomentumDays  int
	backtestPortfolioSize int
	backtestJSON          bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)
	backtestCmd.AddCommand(backtestResultsCmd)
	backtestCmd.AddCommand(backtestPositionsCmd)
	backtestCmd.AddCommand(backtestChartCmd)
	backtestCmd.AddCommand(backtestClearCmd)
	backtestCmd.AddCommand(backtestStatusCmd)

	backtestRunCmd.Flags().IntVar(&backtestMomentumDays, "momentum-days", 0, "momentum window in trading days (default from config)")
	backtestRunCmd.Flags().IntVar(&backtestPortfolioSize, "portfolio-size", 0, "positions per side (default from config)")
	backtestCmd.PersistentFlags().BoolVar(&backtestJSON, "json", false, "print raw JSON")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	started := time.Now()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectDB(cmd.Context()); err != nil {
		return err
	}
	engine, err := a.engine()
	if err != nil {
		return err
	}

	params := a.backtestParams()
	if backtestMomentumDays > 0 {
		params.MomentumDays = backtestMomentumDays
	}
	if backtestPortfolioSize > 0 {
		params.PortfolioSize = backtestPortfolioSize
	}

	PrintHeader("Event Momentum Backtest", [][2]string{
		{"Momentum", fmt.Sprintf("%d days", params.MomentumDays)},
		{"Positions", fmt.Sprintf("%d long / %d short", params.PortfolioSize, params.PortfolioSize)},
		{"Universe", fmt.Sprintf("%d tickers", len(a.universe().Tickers))},
	})

	events, err := engine.Run(cmd.Context(), params.MomentumDays, params.PortfolioSize)
	if err != nil {
		return err
	}

	if backtestJSON {
		return PrintJSON(events)
	}
	printEvents(events)

	PrintCompletion("Backtest", started)
	return nil
}

func printEvents(events []contracts.EventBacktest) {
	for _, e := range events {
		fmt.Printf("\n📅 %s (%s)\n", e.EventName, e.EventDate.Format(contracts.DateLayout))
		if !e.Succeeded() {
			fmt.Printf("   ❌ %s\n", e.Error)
			continue
		}
		for _, p := range e.Performance {
			fmt.Printf("   #%-4d %-4s portfolio %9s  S&P %9s  excess %9s  sharpe %6.2f  mdd %6.2f%%  win %5.1f%%\n",
				p.ID, p.Period,
				formatPercent(p.PortfolioReturn),
				formatPercent(p.BenchmarkReturn),
				formatPercent(p.ExcessReturn),
				p.SharpeRatio, p.MaxDrawdown, p.WinRate)
		}
	}
}

func showBacktestResults(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectDB(cmd.Context()); err != nil {
		return err
	}
	engine, err := a.engine()
	if err != nil {
		return err
	}

	events, err := engine.Results(cmd.Context())
	if err != nil {
		return err
	}
	if backtestJSON {
		return PrintJSON(events)
	}
	if len(events) == 0 {
		PrintWarning("No stored results. Run: go run ./cmd/blackswan backtest run")
		return nil
	}
	printEvents(events)
	return nil
}

func parseRunID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, contracts.NewValidationError("run_id", "must be a positive integer")
	}
	return id, nil
}

func showBacktestPositions(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectDB(cmd.Context()); err != nil {
		return err
	}
	engine, err := a.engine()
	if err != nil {
		return err
	}

	positions, err := engine.Positions(cmd.Context(), id)
	if err != nil {
		return err
	}
	if backtestJSON {
		return PrintJSON(positions)
	}

	fmt.Printf("Positions of run #%d:\n\n", id)
	for _, p := range positions {
		fmt.Printf("  %-6s %-8s rank %-3d entry %10.2f  exit %10.2f  return %9s\n",
			p.Side, p.Ticker, p.MomentumRank, p.EntryPrice, p.ExitPrice, formatPercent(p.ReturnPct))
	}
	return nil
}

func showBacktestChart(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectDB(cmd.Context()); err != nil {
		return err
	}
	engine, err := a.engine()
	if err != nil {
		return err
	}

	series, err := engine.Chart(cmd.Context(), id)
	if err != nil {
		return err
	}
	if backtestJSON {
		return PrintJSON(series)
	}

	fmt.Printf("Run #%d (%s):\n\n", series.RunID, series.Period)
	fmt.Printf("  %-10s  %10s  %10s\n", "date", "portfolio", "s&p 500")
	for _, p := range series.Points {
		fmt.Printf("  %-10s  %10.2f  %10.2f\n", p.Date.Format(contracts.DateLayout), p.Portfolio, p.Benchmark)
	}
	return nil
}

func clearBacktest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectDB(cmd.Context()); err != nil {
		return err
	}
	engine, err := a.engine()
	if err != nil {
		return err
	}

	if err := engine.Clear(cmd.Context()); err != nil {
		return err
	}
	PrintSuccess("Stored backtest results cleared")
	return nil
}

func showDataStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectDB(cmd.Context()); err != nil {
		return err
	}

	status, err := a.gate().Status(cmd.Context(), a.universe())
	if err != nil {
		return err
	}
	if backtestJSON {
		return PrintJSON(status)
	}

	PrintHeader("Data Status", [][2]string{
		{"Snapshots", fmt.Sprintf("%d (%s ~ %s)", status.Snapshots, formatDate(status.FirstSnapshot), formatDate(status.LastSnapshot))},
		{"Tickers", fmt.Sprintf("%d/%d", len(status.Tickers), len(a.universe().Tickers))},
		{"Coverage", fmt.Sprintf("%.1f%%", status.Coverage*100)},
	})
	if len(status.MissingTickers) > 0 {
		fmt.Printf("  Missing   : %v\n", status.MissingTickers)
	}
	if status.Ready {
		PrintSuccess("Store is ready for backtesting")
	} else {
		PrintWarning("Store is not ready. Run: go run ./cmd/blackswan data sync")
	}
	return nil
}
