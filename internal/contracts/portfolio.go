package contracts

// Side is a position direction
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// MomentumReturn is one ticker's return over the momentum window
type MomentumReturn struct {
	Ticker     string  `json:"ticker"`
	Return     float64 `json:"return"` // %
	StartClose float64 `json:"start_close"`
	EndClose   float64 `json:"end_close"`
}

// Position is one leg of a backtest portfolio
// ⭐ SSOT: momentum_positions row
type Position struct {
	ID           int64   `json:"id"`
	BacktestID   int64   `json:"backtest_id"`
	Ticker       string  `json:"ticker"`
	Side         Side    `json:"side"`
	MomentumRank int     `json:"momentum_rank"`
	Momentum     float64 `json:"momentum"`
	EntryPrice   float64 `json:"entry_price"`
	ExitPrice    float64 `json:"exit_price"`
	ReturnPct    float64 `json:"return_pct"` // signed: SHORT is already negated
	PositionSize float64 `json:"position_size"`
}

// Portfolio is the long/short split for one event
type Portfolio struct {
	Long  []MomentumReturn `json:"long"`
	Short []MomentumReturn `json:"short"` // rank 1 = worst performer
}

// Tickers returns all long then short tickers
func (p *Portfolio) Tickers() []string {
	out := make([]string, 0, len(p.Long)+len(p.Short))
	for _, m := range p.Long {
		out = append(out, m.Ticker)
	}
	for _, m := range p.Short {
		out = append(out, m.Ticker)
	}
	return out
}
