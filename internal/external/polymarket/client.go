package polymarket

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/config"
	"github.com/wonny/blackswan/backend/pkg/httputil"
	"github.com/wonny/blackswan/backend/pkg/logger"
	"github.com/wonny/blackswan/backend/pkg/redis"
)

const provider = "polymarket"

// Client lists prediction markets from the Gamma API and reads daily
// traded volume from the subgraph
// ⭐ SSOT: Polymarket calls happen only through this client
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	cfg        config.PolymarketConfig
	now        func() time.Time
	logger     *logger.Logger
}

// NewClient creates a new Polymarket client. cache may wrap a disabled
// redis client, in which case every listing hits Gamma.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, cfg config.PolymarketConfig, log *logger.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.MaxOffset <= 0 {
		cfg.MaxOffset = 2000
	}
	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = redis.TTLLong
	}
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		cfg:        cfg,
		now:        time.Now,
		logger:     log.WithComponent("polymarket"),
	}
}

// gammaEvent is one /events entry; only its markets are used
type gammaEvent struct {
	Markets []gammaMarket `json:"markets"`
}

type gammaMarket struct {
	Question    string  `json:"question"`
	ConditionID string  `json:"conditionId"`
	Slug        string  `json:"slug"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Volume24hr  float64 `json:"volume24hr"`
	Closed      bool    `json:"closed"`
}

// parseTime accepts the RFC 3339 and bare-date forms Gamma emits
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, contracts.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func (m gammaMarket) candidate() contracts.MarketCandidate {
	return contracts.MarketCandidate{
		Question:    m.Question,
		ConditionID: m.ConditionID,
		Slug:        m.Slug,
		StartDate:   parseTime(m.StartDate),
		EndDate:     parseTime(m.EndDate),
		Volume24h:   m.Volume24hr,
		Closed:      m.Closed,
	}
}

// ListMarkets returns every market across the four closed × archived
// scopes, de-duplicated by condition id. Each scope is cached for the
// listing TTL.
func (c *Client) ListMarkets(ctx context.Context) ([]contracts.MarketCandidate, error) {
	seen := make(map[string]bool)
	var all []contracts.MarketCandidate

	for _, closed := range []bool{false, true} {
		for _, archived := range []bool{false, true} {
			var scope []contracts.MarketCandidate
			err := c.cache.GetOrSet(ctx, redis.MarketListingKey(closed, archived), &scope, c.cfg.ListingTTL, func() (interface{}, error) {
				return c.fetchScope(ctx, closed, archived)
			})
			if err != nil {
				return nil, contracts.Unavailable(provider, err)
			}

			for _, m := range scope {
				key := m.ConditionID
				if key == "" {
					key = m.Question
				}
				if seen[key] {
					continue
				}
				seen[key] = true
				all = append(all, m)
			}
		}
	}

	c.logger.WithField("markets", len(all)).Debug("Listed prediction markets")
	return all, nil
}

// fetchScope pages through /events by descending volume until a short
// page or the offset ceiling
func (c *Client) fetchScope(ctx context.Context, closed, archived bool) ([]contracts.MarketCandidate, error) {
	var out []contracts.MarketCandidate

	for offset := 0; offset < c.cfg.MaxOffset; offset += c.cfg.PageSize {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(c.cfg.PageSize))
		params.Set("offset", strconv.Itoa(offset))
		params.Set("closed", strconv.FormatBool(closed))
		params.Set("archived", strconv.FormatBool(archived))
		params.Set("order", "volume")
		params.Set("ascending", "false")

		var events []gammaEvent
		if err := c.httpClient.GetJSON(ctx, strings.TrimRight(c.cfg.GammaURL, "/")+"/events?"+params.Encode(), &events); err != nil {
			return nil, fmt.Errorf("list events closed=%t archived=%t offset=%d: %w", closed, archived, offset, err)
		}

		for _, e := range events {
			for _, m := range e.Markets {
				out = append(out, m.candidate())
			}
		}

		if len(events) < c.cfg.PageSize {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"closed":   closed,
		"archived": archived,
		"markets":  len(out),
	}).Debug("Fetched Gamma scope")

	return out, nil
}
