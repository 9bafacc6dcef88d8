package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/internal/s0_data/collector"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// DefaultSyncDays is the lookback when a sync request names no range
const DefaultSyncDays = 30

// Syncer pulls vendor history into the store
type Syncer interface {
	SyncAll(ctx context.Context, indexSymbol string, tickers []string, from, to time.Time, cfg collector.Config) (*collector.Report, error)
}

// DataHandler triggers market-data sync
// ⭐ SSOT: data API handlers live only here
type DataHandler struct {
	syncer      Syncer
	indexSymbol string
	universe    contracts.Universe
	workers     int
	now         func() time.Time
	logger      *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(syncer Syncer, indexSymbol string, universe contracts.Universe, workers int, log *logger.Logger) *DataHandler {
	return &DataHandler{
		syncer:      syncer,
		indexSymbol: indexSymbol,
		universe:    universe,
		workers:     workers,
		now:         time.Now,
		logger:      log,
	}
}

// SyncRequest is the sync request body. Both dates are optional.
type SyncRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func parseDate(field, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse(contracts.DateLayout, value)
	if err != nil {
		return time.Time{}, contracts.NewValidationError(field, "must be YYYY-MM-DD")
	}
	return t, nil
}

// Sync pulls daily history for the benchmark and every universe ticker
// POST /api/data/sync
func (h *DataHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := decodeBody(r, &req); err != nil {
		respondFailure(w, err, "")
		return
	}

	to, err := parseDate("to", req.To, h.now())
	if err != nil {
		respondFailure(w, err, "")
		return
	}
	from, err := parseDate("from", req.From, to.AddDate(0, 0, -DefaultSyncDays))
	if err != nil {
		respondFailure(w, err, "")
		return
	}
	if from.After(to) {
		respondError(w, http.StatusBadRequest, "from: must not be after to")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"from": from.Format(contracts.DateLayout),
		"to":   to.Format(contracts.DateLayout),
	}).Info("Data sync triggered")

	report, err := h.syncer.SyncAll(r.Context(), h.indexSymbol, h.universe.Tickers, from, to, collector.Config{Workers: h.workers})
	if err != nil {
		h.logger.WithError(err).Error("Data sync failed")
		respondJSON(w, statusFor(err), envelope{Success: false, Error: err.Error(), Data: report})
		return
	}
	respondOK(w, "Market data synced", report)
}
