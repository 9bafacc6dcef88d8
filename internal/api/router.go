package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/wonny/blackswan/backend/internal/api/handlers"
	"github.com/wonny/blackswan/backend/pkg/logger"
	"github.com/wonny/blackswan/backend/pkg/metrics"
)

// Handlers groups every endpoint handler the router mounts
type Handlers struct {
	Analysis   *handlers.AnalysisHandler
	Market     *handlers.MarketHandler
	Momentum   *handlers.MomentumHandler
	Validation *handlers.ValidationHandler
	Data       *handlers.DataHandler
}

// NewRouter creates and configures the HTTP router. reg may be nil.
// ⭐ SSOT: routes are declared only here
func NewRouter(h Handlers, reg *metrics.Registry, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	r.HandleFunc("/api/health", healthCheckHandler).Methods("GET")
	if reg != nil {
		r.Handle("/metrics", reg.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	// subrouters answer 404 on a method mismatch unless told otherwise
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)
	api.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	// Composite and batch analysis
	api.HandleFunc("/analyze", h.Analysis.Analyze).Methods("POST")
	api.HandleFunc("/batch/polymarket", h.Analysis.Batch).Methods("POST")

	// Live benchmark
	api.HandleFunc("/spx/live", h.Market.SPXLive).Methods("GET")

	// Momentum backtest
	api.HandleFunc("/momentum/run-backtest", h.Momentum.Run).Methods("POST")
	api.HandleFunc("/momentum/results", h.Momentum.Results).Methods("GET")
	api.HandleFunc("/momentum/positions/{id}", h.Momentum.Positions).Methods("GET")
	api.HandleFunc("/momentum/clear-results", h.Momentum.Clear).Methods("DELETE")
	api.HandleFunc("/momentum/chart-data/{id}", h.Momentum.Chart).Methods("GET")
	api.HandleFunc("/momentum/data-status", h.Momentum.DataStatus).Methods("GET")

	// Proxy validation
	api.HandleFunc("/validation/proxy", h.Validation.Proxy).Methods("POST")

	// Market data sync
	api.HandleFunc("/data/sync", h.Data.Sync).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	if reg != nil {
		r.Use(metricsMiddleware(reg))
	}
	r.Use(recoveryMiddleware(log))

	// CORS wraps the router so preflight requests never reach route matching
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})(r)
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"service":   "blackswan-api",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// metricsMiddleware records request counts and latency per route template
func metricsMiddleware(reg *metrics.Registry) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			reg.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
			reg.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": false,
						"error":   "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
