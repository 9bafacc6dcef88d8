package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// Backtester runs and reads momentum backtests
type Backtester interface {
	Run(ctx context.Context, momentumDays, portfolioSize int) ([]contracts.EventBacktest, error)
	Results(ctx context.Context) ([]contracts.EventBacktest, error)
	Positions(ctx context.Context, runID int64) ([]contracts.Position, error)
	Clear(ctx context.Context) error
	Chart(ctx context.Context, runID int64) (*contracts.IndexSeries, error)
}

// DataStatusSource reports stored coverage for a universe
type DataStatusSource interface {
	Status(ctx context.Context, universe contracts.Universe) (*contracts.DataStatus, error)
}

// MomentumHandler serves the event momentum backtest
// ⭐ SSOT: momentum API handlers live only here
type MomentumHandler struct {
	engine   Backtester
	status   DataStatusSource
	universe contracts.Universe
	defaults contracts.BacktestParams
	logger   *logger.Logger
}

// NewMomentumHandler creates a new momentum handler. defaults fill
// parameters missing from a run request.
func NewMomentumHandler(engine Backtester, status DataStatusSource, universe contracts.Universe, defaults contracts.BacktestParams, log *logger.Logger) *MomentumHandler {
	return &MomentumHandler{
		engine:   engine,
		status:   status,
		universe: universe,
		defaults: defaults,
		logger:   log,
	}
}

// RunRequest is the backtest request body. Zero fields take the defaults.
type RunRequest struct {
	MomentumDays  int `json:"momentumDays"`
	PortfolioSize int `json:"portfolioSize"`
}

// RunResponse echoes the effective parameters with the event results
type RunResponse struct {
	Config contracts.BacktestParams  `json:"config"`
	Events []contracts.EventBacktest `json:"events"`
}

// Run replaces all stored results with a fresh backtest
// POST /api/momentum/run-backtest
func (h *MomentumHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := decodeBody(r, &req); err != nil {
		respondFailure(w, err, "")
		return
	}

	params := h.defaults
	if req.MomentumDays != 0 {
		params.MomentumDays = req.MomentumDays
	}
	if req.PortfolioSize != 0 {
		params.PortfolioSize = req.PortfolioSize
	}

	events, err := h.engine.Run(r.Context(), params.MomentumDays, params.PortfolioSize)
	if err != nil {
		h.logger.WithError(err).Error("Backtest failed")
		respondFailure(w, err, "Backtest failed")
		return
	}

	respondOK(w,
		fmt.Sprintf("Backtest completed with %dd momentum, %d positions", params.MomentumDays, params.PortfolioSize*2),
		RunResponse{Config: params, Events: events})
}

// Results returns stored runs grouped by event
// GET /api/momentum/results
func (h *MomentumHandler) Results(w http.ResponseWriter, r *http.Request) {
	events, err := h.engine.Results(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load results")
		respondFailure(w, err, "Failed to load backtest results")
		return
	}
	if events == nil {
		events = []contracts.EventBacktest{}
	}
	respondOK(w, "", events)
}

// Positions returns one run's positions, best return first
// GET /api/momentum/positions/{id}
func (h *MomentumHandler) Positions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondFailure(w, err, "")
		return
	}

	positions, err := h.engine.Positions(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load positions")
		respondFailure(w, err, "Failed to load positions")
		return
	}
	if positions == nil {
		positions = []contracts.Position{}
	}
	respondOK(w, "", positions)
}

// Clear deletes every stored run and position
// DELETE /api/momentum/clear-results
func (h *MomentumHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Clear(r.Context()); err != nil {
		h.logger.WithError(err).Error("Failed to clear results")
		respondFailure(w, err, "Failed to clear backtest results")
		return
	}
	h.logger.Info("All backtest results cleared")
	respondOK(w, "All backtest results cleared successfully", nil)
}

// Chart recomputes the indexed portfolio and benchmark series for one run
// GET /api/momentum/chart-data/{id}
func (h *MomentumHandler) Chart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondFailure(w, err, "")
		return
	}

	series, err := h.engine.Chart(r.Context(), id)
	if err != nil {
		respondFailure(w, err, "Failed to build chart data")
		return
	}
	respondOK(w, "", series)
}

// DataStatus reports stored benchmark and ticker coverage
// GET /api/momentum/data-status
func (h *MomentumHandler) DataStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.status.Status(r.Context(), h.universe)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read data status")
		respondFailure(w, err, "Failed to read data status")
		return
	}
	respondOK(w, "", status)
}
