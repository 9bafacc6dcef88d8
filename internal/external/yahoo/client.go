package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
	"github.com/wonny/blackswan/backend/pkg/redis"
)

const provider = "yahoo"

// Client serves quotes, index closes and daily history from Yahoo Finance
// ⭐ SSOT: Yahoo Finance calls happen only through this client
type Client struct {
	source Source
	cache  *redis.Cache // optional
	now    func() time.Time
	logger *logger.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(source Source, cache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		source: source,
		cache:  cache,
		now:    time.Now,
		logger: log.WithComponent("yahoo"),
	}
}

// Symbol converts a universe ticker to Yahoo notation (BRK.B -> BRK-B).
// Index symbols pass through unchanged.
func Symbol(ticker string) string {
	if strings.HasPrefix(ticker, "^") {
		return ticker
	}
	return strings.ReplaceAll(strings.ToUpper(ticker), ".", "-")
}

// call runs a blocking vendor call and gives up when ctx is done
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// LiveQuote returns the current quote for symbol
func (c *Client) LiveQuote(ctx context.Context, symbol string) (*contracts.LiveQuote, error) {
	load := func() (interface{}, error) {
		q, err := call(ctx, func() (*Quote, error) { return c.source.Quote(Symbol(symbol)) })
		if err != nil {
			return nil, err
		}
		now := c.now()
		return &contracts.LiveQuote{
			Symbol:        symbol,
			Price:         q.Price,
			PreviousClose: q.PreviousClose,
			IsMarketOpen:  MarketOpen(now),
			FetchedAt:     now.UTC(),
		}, nil
	}

	var quote contracts.LiveQuote
	var err error
	if c.cache != nil {
		err = c.cache.GetOrSet(ctx, redis.QuoteKey(symbol), &quote, redis.TTLShort, load)
	} else {
		var v interface{}
		if v, err = load(); err == nil {
			quote = *v.(*contracts.LiveQuote)
		}
	}
	if err != nil {
		return nil, contracts.Unavailable(provider, err)
	}
	return &quote, nil
}

// IndexLevel returns symbol's close on date. A date without a bar (holiday,
// weekend, future) is a provider failure.
func (c *Client) IndexLevel(ctx context.Context, symbol string, date time.Time) (float64, error) {
	bars, err := c.history(ctx, symbol, date)
	if err != nil {
		return 0, contracts.Unavailable(provider, err)
	}

	want := date.Format(contracts.DateLayout)
	for _, b := range bars {
		if b.Date == want && b.Close > 0 {
			return b.Close, nil
		}
	}
	return 0, contracts.Unavailable(provider, fmt.Errorf("no %s close on %s", symbol, want))
}

// DailyBars returns symbol's bars with from <= date <= to, oldest first
func (c *Client) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]contracts.StockPrice, error) {
	bars, err := c.history(ctx, symbol, from)
	if err != nil {
		return nil, contracts.Unavailable(provider, err)
	}

	lo := from.Format(contracts.DateLayout)
	hi := to.Format(contracts.DateLayout)

	out := make([]contracts.StockPrice, 0, len(bars))
	for _, b := range bars {
		if b.Date < lo || b.Date > hi {
			continue
		}
		d, err := time.Parse(contracts.DateLayout, b.Date)
		if err != nil {
			continue
		}
		out = append(out, contracts.StockPrice{
			Ticker: symbol,
			Date:   d,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"from":   lo,
		"to":     hi,
		"bars":   len(out),
	}).Debug("Fetched daily bars")

	return out, nil
}

func (c *Client) history(ctx context.Context, symbol string, since time.Time) ([]Bar, error) {
	period := Period(c.now().Sub(since))
	return call(ctx, func() ([]Bar, error) { return c.source.History(Symbol(symbol), period) })
}

// Period picks the smallest vendor range covering span back from today
func Period(span time.Duration) string {
	days := int(span.Hours()/24) + 1
	switch {
	case days <= 5:
		return "5d"
	case days <= 28:
		return "1mo"
	case days <= 88:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 360:
		return "1y"
	case days <= 725:
		return "2y"
	case days <= 1820:
		return "5y"
	case days <= 3645:
		return "10y"
	default:
		return "max"
	}
}

var newYork = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}()

// MarketOpen reports whether t falls in the NYSE regular session
// (weekdays 09:30-16:00 New York). Exchange holidays are not modelled.
func MarketOpen(t time.Time) bool {
	ny := t.In(newYork)
	if ny.Weekday() == time.Saturday || ny.Weekday() == time.Sunday {
		return false
	}
	minutes := ny.Hour()*60 + ny.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}
