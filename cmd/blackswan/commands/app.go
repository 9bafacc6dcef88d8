package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"

	"github.com/wonny/blackswan/backend/internal/audit"
	"github.com/wonny/blackswan/backend/internal/backtest"
	"github.com/wonny/blackswan/backend/internal/brain"
	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/internal/external/gemini"
	"github.com/wonny/blackswan/backend/internal/external/polymarket"
	"github.com/wonny/blackswan/backend/internal/external/trends"
	"github.com/wonny/blackswan/backend/internal/external/yahoo"
	"github.com/wonny/blackswan/backend/internal/s0_data"
	"github.com/wonny/blackswan/backend/internal/s0_data/collector"
	"github.com/wonny/blackswan/backend/internal/s0_data/quality"
	"github.com/wonny/blackswan/backend/internal/s2_signals"
	"github.com/wonny/blackswan/backend/internal/strategyconfig"
	"github.com/wonny/blackswan/backend/pkg/config"
	"github.com/wonny/blackswan/backend/pkg/database"
	"github.com/wonny/blackswan/backend/pkg/httputil"
	"github.com/wonny/blackswan/backend/pkg/logger"
	"github.com/wonny/blackswan/backend/pkg/metrics"
	"github.com/wonny/blackswan/backend/pkg/redis"
	"github.com/wonny/blackswan/backend/pkg/throttle"
)

// Breaker settings shared by every outbound provider
const (
	breakerFailures    = 5
	breakerOpenTimeout = 30 * time.Second
)

// app holds the wired dependency graph for one command
// ⭐ SSOT: every component is constructed here and nowhere else
type app struct {
	cfg *config.Config
	log *logger.Logger
	reg *metrics.Registry // nil when metrics are disabled

	redis *redis.Client
	cache *redis.Cache

	strategy *strategyconfig.Config

	yahoo      *yahoo.Client
	polymarket *polymarket.Client

	fear    *s2_signals.FearIndexScorer
	market  *s2_signals.MarketScorer
	trends  *s2_signals.TrendsScorer
	resolve *s2_signals.SentimentResolver

	db        *database.DB // nil until connectDB
	snapshots *s0_data.SnapshotRepository
	prices    *s0_data.PriceRepository
}

// newApp loads configuration and builds everything that needs no database
func newApp() (*app, error) {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", configFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	var reg *metrics.Registry
	if cfg.MetricsEnabled {
		reg = metrics.NewRegistry()
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rdb = redis.Disabled()
	}
	cache := redis.NewCache(rdb, "blackswan")
	limiter := redis.NewRateLimiter(rdb, "blackswan")

	strategy, err := strategyconfig.LoadOrDefault(cfg.Backtest.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy config: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithFields(map[string]interface{}{
			"code":    w.Code,
			"message": w.Message,
		}).Warn("Strategy config warning")
	}

	hook := breakerHook(reg)

	gammaLimit := redis.GammaRateLimit
	if cfg.Polymarket.RequestLimit > 0 {
		gammaLimit.Limit = cfg.Polymarket.RequestLimit
	}
	polyHTTP := httputil.New(cfg, log).
		OnBreakerStateChange(hook).
		WithBreaker(httputil.BreakerConfig{Name: "polymarket", ConsecutiveFailures: breakerFailures, OpenTimeout: breakerOpenTimeout}).
		WithRateLimiter(limiter, gammaLimit)

	geminiHTTP := httputil.New(cfg, log).
		DisableRetry().
		OnBreakerStateChange(hook).
		WithBreaker(httputil.BreakerConfig{Name: "gemini", ConsecutiveFailures: breakerFailures, OpenTimeout: breakerOpenTimeout}).
		WithRateLimiter(limiter, redis.GeminiRateLimit)

	trendsHTTP := httputil.New(cfg, log).
		DisableRetry().
		OnBreakerStateChange(hook).
		WithBreaker(httputil.BreakerConfig{Name: "trends", ConsecutiveFailures: breakerFailures, OpenTimeout: breakerOpenTimeout})

	yahooClient := yahoo.NewClient(yahoo.NewSource(), cache, log)
	polyClient := polymarket.NewClient(polyHTTP, cache, cfg.Polymarket, log)
	chooser := gemini.NewChooser(geminiHTTP, cfg.Gemini, log)
	trendsClient := trends.NewClient(trendsHTTP, throttle.New(cfg.Trends.MinInterval, throttle.RealClock()), cfg.Trends.BaseURL, log)

	fear := s2_signals.NewFearIndexScorer(yahooClient, cfg.Yahoo.FearSymbol, cfg.Yahoo.SkewSymbol, log)
	market := s2_signals.NewMarketScorer(s2_signals.NewMarketSelector(polyClient, chooser, log), polyClient, log)

	return &app{
		cfg:        cfg,
		log:        log,
		reg:        reg,
		redis:      rdb,
		cache:      cache,
		strategy:   strategy,
		yahoo:      yahooClient,
		polymarket: polyClient,
		fear:       fear,
		market:     market,
		trends:     s2_signals.NewTrendsScorer(trendsClient, log),
		resolve:    s2_signals.NewSentimentResolver(market, fear, log).WithStageTimeout(cfg.Analysis.SignalTimeout),
	}, nil
}

func breakerHook(reg *metrics.Registry) func(name string, from, to gobreaker.State) {
	if reg == nil {
		return nil
	}
	return reg.RecordBreakerState
}

// connectDB opens the pool and applies the schema
func (a *app) connectDB(ctx context.Context) error {
	db, err := database.New(a.cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	a.db = db
	a.snapshots = s0_data.NewSnapshotRepository(db.Pool)
	a.prices = s0_data.NewPriceRepository(db.Pool)
	a.log.Info("Connected to database")
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}

// orchestrator needs connectDB for the stored snapshots
func (a *app) orchestrator() *brain.Orchestrator {
	spx := s2_signals.NewSPXScorer(a.snapshots, a.yahoo, a.cfg.Yahoo.IndexSymbol, a.log)
	return brain.NewOrchestrator(spx, a.resolve, a.trends, a.cfg.Analysis.SignalTimeout, a.reg, a.log)
}

func (a *app) batchRunner() *brain.BatchRunner {
	return brain.NewBatchRunner(a.market, a.cfg.Analysis.BatchDelay, throttle.RealClock(), a.log)
}

func (a *app) proxyValidator() *audit.ProxyValidator {
	return audit.NewProxyValidator(a.fear, a.market, a.log)
}

func (a *app) universe() contracts.Universe {
	return a.strategy.TickerUniverse()
}

// backtestParams prefers the strategy file, then the environment
func (a *app) backtestParams() contracts.BacktestParams {
	p := a.strategy.Backtest.Params()
	if p.MomentumDays == 0 {
		p.MomentumDays = a.cfg.Backtest.MomentumDays
	}
	if p.PortfolioSize == 0 {
		p.PortfolioSize = a.cfg.Backtest.PortfolioSize
	}
	return p
}

// engine needs connectDB
func (a *app) engine() (*backtest.Engine, error) {
	events, err := a.strategy.TrackedEvents()
	if err != nil {
		return nil, fmt.Errorf("tracked events: %w", err)
	}
	repo := backtest.NewRepository(a.db.Pool)
	return backtest.NewEngine(a.prices, a.snapshots, repo, events, a.universe(), a.reg, a.log), nil
}

// collector needs connectDB
func (a *app) collector() *collector.Collector {
	return collector.NewCollector(a.yahoo, a.snapshots, a.prices, a.log)
}

// gate needs connectDB
func (a *app) gate() *quality.Gate {
	return quality.NewGate(a.snapshots, a.prices, quality.DefaultConfig())
}
