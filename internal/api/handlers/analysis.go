package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// MaxBatchItems caps one batch request
const MaxBatchItems = 50

// Analyzer computes the composite black-swan score
type Analyzer interface {
	Analyze(ctx context.Context, keyword, date string) (*contracts.CompositeScoreResult, error)
}

// BatchScorer scores many (keyword, date) pairs against the prediction market
type BatchScorer interface {
	Run(ctx context.Context, items []contracts.BatchItem) *contracts.BatchResult
}

// AnalysisHandler serves composite and batch market analysis
// ⭐ SSOT: analysis API handlers live only here
type AnalysisHandler struct {
	analyzer Analyzer
	batch    BatchScorer
	logger   *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyzer Analyzer, batch BatchScorer, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: analyzer,
		batch:    batch,
		logger:   log,
	}
}

// AnalyzeRequest is the composite analysis request body
type AnalyzeRequest struct {
	Keyword string `json:"keyword"`
	Date    string `json:"date"`
}

// Analyze runs the composite score for one (keyword, date)
// POST /api/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeBody(r, &req); err != nil {
		respondFailure(w, err, "")
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req.Keyword, req.Date)
	if err != nil {
		h.logger.WithError(err).Warn("Analysis rejected")
		respondFailure(w, err, "Analysis failed")
		return
	}

	respondOK(w, "", result)
}

// BatchRequest is the batch market analysis request body
type BatchRequest struct {
	Events []contracts.BatchItem `json:"events"`
}

// Batch scores each event against the prediction market, sequentially
// POST /api/batch/polymarket
func (h *AnalysisHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeBody(r, &req); err != nil {
		respondFailure(w, err, "")
		return
	}
	if len(req.Events) == 0 {
		respondError(w, http.StatusBadRequest, "events: expected { events: [{ keyword, date }, ...] }")
		return
	}
	if len(req.Events) > MaxBatchItems {
		respondError(w, http.StatusBadRequest, "events: at most 50 per batch")
		return
	}

	h.logger.WithField("events", len(req.Events)).Info("Batch analysis started")

	respondOK(w, "", h.batch.Run(r.Context(), req.Events))
}
