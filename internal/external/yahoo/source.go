package yahoo

import (
	"fmt"

	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

// Bar is one daily OHLCV bar as returned by the vendor
type Bar struct {
	Date   string // YYYY-MM-DD in the exchange calendar
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Quote is the vendor's current price and previous close
type Quote struct {
	Price         float64
	PreviousClose float64
}

// Source is the vendor surface the client depends on
type Source interface {
	Quote(symbol string) (*Quote, error)
	History(symbol, period string) ([]Bar, error)
}

// yfSource is the go-yfinance implementation of Source
type yfSource struct{}

// NewSource returns a Source backed by go-yfinance
func NewSource() Source {
	return yfSource{}
}

func (yfSource) Quote(symbol string) (*Quote, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("create ticker %s: %w", symbol, err)
	}
	defer t.Close()

	q := &Quote{}
	if quote, err := t.Quote(); err == nil && quote != nil {
		switch {
		case quote.RegularMarketPrice > 0:
			q.Price = quote.RegularMarketPrice
		case quote.PreMarketPrice > 0:
			q.Price = quote.PreMarketPrice
		case quote.PostMarketPrice > 0:
			q.Price = quote.PostMarketPrice
		}
	}

	info, err := t.Info()
	if err != nil && q.Price == 0 {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if info != nil {
		q.PreviousClose = info.RegularMarketPreviousClose
		if q.Price == 0 {
			q.Price = info.CurrentPrice
		}
	}

	if q.Price <= 0 {
		return nil, fmt.Errorf("quote %s: no price", symbol)
	}
	return q, nil
}

func (yfSource) History(symbol, period string) ([]Bar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("create ticker %s: %w", symbol, err)
	}
	defer t.Close()

	bars, err := t.History(models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}

	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		out = append(out, Bar{
			Date:   b.Date.Format("2006-01-02"),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	return out, nil
}
