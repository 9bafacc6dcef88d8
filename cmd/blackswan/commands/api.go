package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/blackswan/backend/internal/api"
	"github.com/wonny/blackswan/backend/internal/api/handlers"
	"github.com/wonny/blackswan/backend/internal/audit"
	"github.com/wonny/blackswan/backend/internal/s0_data/collector"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET    /health                          - Health check
  GET    /metrics                         - Prometheus metrics
  POST   /api/analyze                     - Composite black-swan score
  POST   /api/batch/polymarket            - Batch prediction-market scoring
  GET    /api/spx/live                    - Live S&P 500 quote
  POST   /api/momentum/run-backtest       - Run the event momentum backtest
  GET    /api/momentum/results            - Stored backtest results
  GET    /api/momentum/positions/{id}     - Positions of one run
  DELETE /api/momentum/clear-results      - Clear stored results
  GET    /api/momentum/chart-data/{id}    - Indexed chart series of one run
  GET    /api/momentum/data-status        - Stored data coverage
  POST   /api/validation/proxy            - Fear index vs market agreement
  POST   /api/data/sync                   - Pull market data into the store

Example:
  go run ./cmd/blackswan api
  go run ./cmd/blackswan api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort    string
	apiWorkers int
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from PORT)")
	apiCmd.Flags().IntVar(&apiWorkers, "workers", collector.DefaultWorkers, "concurrent tickers per data sync")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Black Swan API Server ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	if err := a.connectDB(cmd.Context()); err != nil {
		return err
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}

	h := api.Handlers{
		Analysis:   handlers.NewAnalysisHandler(a.orchestrator(), a.batchRunner(), a.log),
		Market:     handlers.NewMarketHandler(a.yahoo, a.cfg.Yahoo.IndexSymbol, a.log),
		Momentum:   handlers.NewMomentumHandler(engine, a.gate(), a.universe(), a.backtestParams(), a.log),
		Validation: handlers.NewValidationHandler(a.proxyValidator(), audit.DefaultProxyCases, a.log),
		Data:       handlers.NewDataHandler(a.collector(), a.cfg.Yahoo.IndexSymbol, a.universe(), apiWorkers, a.log),
	}
	router := api.NewRouter(h, a.reg, a.log)
	server := api.New(a.cfg, a.log, router)

	// Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	a.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
