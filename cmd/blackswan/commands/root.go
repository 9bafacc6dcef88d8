package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "blackswan",
	Short: "Black-swan event scoring and event-momentum backtesting",
	Long: `Black Swan Unified CLI

Scores a (keyword, date) pair for tail-event severity from equity-index
volatility, prediction-market sentiment and search interest, and backtests
long/short momentum portfolios around past shocks.

Usage:
  go run ./cmd/blackswan [command]

Examples:
  go run ./cmd/blackswan api
  go run ./cmd/blackswan analyze --keyword "SVB collapse" --date 2023-03-13
  go run ./cmd/blackswan data sync --from 2019-01-01
  go run ./cmd/blackswan backtest run --momentum-days 5 --portfolio-size 20`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file to load before the environment (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
