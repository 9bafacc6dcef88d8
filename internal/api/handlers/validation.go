package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// ProxyValidator compares the fear index against the market signal
type ProxyValidator interface {
	Validate(ctx context.Context, cases []contracts.ProxyCase) (*contracts.ProxyReport, error)
}

// ValidationHandler serves the fear-index proxy validation
type ValidationHandler struct {
	validator ProxyValidator
	defaults  []contracts.ProxyCase
	logger    *logger.Logger
}

// NewValidationHandler creates a new validation handler. defaults are used
// when a request names no cases.
func NewValidationHandler(validator ProxyValidator, defaults []contracts.ProxyCase, log *logger.Logger) *ValidationHandler {
	return &ValidationHandler{
		validator: validator,
		defaults:  defaults,
		logger:    log,
	}
}

// ProxyRequest is the proxy validation request body
type ProxyRequest struct {
	Cases []contracts.ProxyCase `json:"cases"`
}

// Proxy runs the validation over the requested or default cases
// POST /api/validation/proxy
func (h *ValidationHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	var req ProxyRequest
	if err := decodeBody(r, &req); err != nil {
		respondFailure(w, err, "")
		return
	}

	cases := req.Cases
	if len(cases) == 0 {
		cases = h.defaults
	}
	if len(cases) > MaxBatchItems {
		respondError(w, http.StatusBadRequest, "cases: at most 50 per request")
		return
	}

	report, err := h.validator.Validate(r.Context(), cases)
	if err != nil {
		h.logger.WithError(err).Error("Proxy validation failed")
		respondFailure(w, err, "Proxy validation failed")
		return
	}
	respondOK(w, report.Conclusion, report)
}
