package strategyconfig

// sp100 is the S&P 100 constituent list ranked by default
var sp100 = []string{
	"AAPL", "ABBV", "ABT", "ACN", "ADBE", "AIG", "AMD", "AMGN", "AMT", "AMZN",
	"AVGO", "AXP", "BA", "BAC", "BK", "BKNG", "BLK", "BMY", "BRK.B", "C",
	"CAT", "CL", "CMCSA", "COF", "COP", "COST", "CRM", "CSCO", "CVS", "CVX",
	"DE", "DHR", "DIS", "DUK", "EMR", "FDX", "GD", "GE", "GILD", "GM",
	"GOOG", "GOOGL", "GS", "HD", "HON", "IBM", "INTC", "INTU", "ISRG", "JNJ",
	"JPM", "KO", "LIN", "LLY", "LMT", "LOW", "MA", "MCD", "MDLZ", "MDT",
	"MET", "META", "MMM", "MO", "MRK", "MS", "MSFT", "NEE", "NFLX", "NKE",
	"NOW", "NVDA", "ORCL", "PEP", "PFE", "PG", "PLTR", "PM", "PYPL", "QCOM",
	"RTX", "SBUX", "SCHW", "SO", "SPG", "T", "TGT", "TMO", "TMUS", "TSLA",
	"TXN", "UBER", "UNH", "UNP", "UPS", "USB", "V", "VZ", "WFC", "WMT",
	"XOM",
}

// Default returns the built-in configuration used when no YAML is given
// ⭐ SSOT: default tracked events and universe
func Default() *Config {
	tickers := make([]string, len(sp100))
	copy(tickers, sp100)

	return &Config{
		Meta: Meta{StrategyID: "event_momentum", Version: "1"},
		Events: []EventConfig{
			{ID: "covid", Name: "COVID-19 Market Crash", Keyword: "covid", Date: "2020-03-16"},
			{ID: "chatgpt", Name: "ChatGPT Launch", Keyword: "chatgpt", Date: "2022-11-30"},
			{ID: "tariffs", Name: "Trump Tariffs", Keyword: "tariffs", Date: "2025-04-03"},
		},
		Universe: Universe{Name: "sp100", Tickers: tickers},
		Backtest: Backtest{MomentumDays: 5, PortfolioSize: 20},
	}
}
