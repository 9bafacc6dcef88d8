package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

// envelope is the response body for every endpoint
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondOK(w http.ResponseWriter, message string, data interface{}) {
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Success: false, Error: message})
}

// MethodNotAllowed answers a known path hit with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed")
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, contracts.ErrInsufficientUniverse), errors.Is(err, contracts.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondFailure writes err with its mapped status. Validation messages are
// returned verbatim; other 5xx causes stay in the log.
func respondFailure(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	var ve *contracts.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, status, ve.Field+": "+ve.Message)
	case status == http.StatusInternalServerError:
		respondError(w, status, fallback)
	default:
		respondError(w, status, err.Error())
	}
}

// decodeBody decodes an optional JSON body. An empty body leaves dest untouched.
func decodeBody(r *http.Request, dest interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return contracts.NewValidationError("body", "must be valid JSON")
	}
	return nil
}

// pathID parses a positive integer path variable
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, contracts.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}
