package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

// Registry holds all Prometheus metrics for the service
// ⭐ SSOT: metric names are declared only here
type Registry struct {
	reg *prometheus.Registry

	// Signal scoring
	SignalDuration *prometheus.HistogramVec
	SignalResults  *prometheus.CounterVec

	// Composite analyses by classification
	Analyses *prometheus.CounterVec

	// Sentiment strategy outcomes (primary, fallback, unavailable)
	SentimentSource *prometheus.CounterVec

	// Outbound provider health
	BreakerState *prometheus.GaugeVec

	// Backtests
	BacktestDuration prometheus.Histogram
	BacktestEvents   *prometheus.CounterVec

	// HTTP surface
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with all metrics registered on a private
// prometheus.Registry, so multiple instances can coexist in tests.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		SignalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blackswan_signal_duration_seconds",
				Help:    "Duration of each signal computation in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"signal", "result"},
		),

		SignalResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blackswan_signal_scores_total",
				Help: "Signal outcomes by score",
			},
			[]string{"signal", "score"},
		),

		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blackswan_analyses_total",
				Help: "Completed composite analyses by classification",
			},
			[]string{"classification"},
		),

		SentimentSource: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blackswan_sentiment_source_total",
				Help: "Sentiment results by the source that produced them",
			},
			[]string{"source"},
		),

		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "blackswan_breaker_state",
				Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
			},
			[]string{"breaker"},
		),

		BacktestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "blackswan_backtest_duration_seconds",
				Help:    "Duration of a full momentum backtest run",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),

		BacktestEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blackswan_backtest_events_total",
				Help: "Backtest events by outcome",
			},
			[]string{"outcome"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blackswan_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"route", "method", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blackswan_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.SignalDuration,
		r.SignalResults,
		r.Analyses,
		r.SentimentSource,
		r.BreakerState,
		r.BacktestDuration,
		r.BacktestEvents,
		r.HTTPRequests,
		r.HTTPDuration,
	)

	return r
}

// Handler exposes the registry in Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying gatherer for tests
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveSignal records one signal computation
func (r *Registry) ObserveSignal(signal string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.SignalDuration.WithLabelValues(signal, result).Observe(time.Since(started).Seconds())
}

// RecordBreakerState matches httputil's state-change hook signature
func (r *Registry) RecordBreakerState(name string, _, to gobreaker.State) {
	var v float64
	switch to {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	r.BreakerState.WithLabelValues(name).Set(v)
}
