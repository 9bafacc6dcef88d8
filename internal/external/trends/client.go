package trends

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/httputil"
	"github.com/wonny/blackswan/backend/pkg/logger"
	"github.com/wonny/blackswan/backend/pkg/throttle"
)

const provider = "trends"

// ErrRateLimited is reported by the sidecar when the upstream throttles it
var ErrRateLimited = errors.New("search interest rate limited")

// Client reads daily search interest from the trends sidecar service
// ⭐ SSOT: search-interest calls happen only through this client
type Client struct {
	httpClient *httputil.Client
	throttle   *throttle.Throttle
	baseURL    string
	logger     *logger.Logger
}

// NewClient creates a new trends client. Calls are spaced by the throttle.
func NewClient(httpClient *httputil.Client, th *throttle.Throttle, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		throttle:   th,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log.WithComponent("trends"),
	}
}

type seriesResponse struct {
	Keyword string `json:"keyword"`
	Data    []struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	} `json:"all_data"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// Series returns daily interest for keyword over [from, to], oldest first
func (c *Client) Series(ctx context.Context, keyword string, from, to time.Time) ([]contracts.SearchPoint, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return nil, contracts.Unavailable(provider, err)
	}

	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("start", from.Format(contracts.DateLayout))
	params.Set("end", to.Format(contracts.DateLayout))

	var resp seriesResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/trends?"+params.Encode(), &resp); err != nil {
		return nil, contracts.Unavailable(provider, err)
	}

	if resp.Error != "" {
		if resp.ErrorType == "rate_limit" {
			c.logger.WithField("keyword", keyword).Warn("Search interest rate limited")
			return nil, fmt.Errorf("%s: %w: %w: %s", provider, contracts.ErrProviderUnavailable, ErrRateLimited, resp.Error)
		}
		return nil, contracts.Unavailable(provider, errors.New(resp.Error))
	}

	points := make([]contracts.SearchPoint, 0, len(resp.Data))
	for _, d := range resp.Data {
		t, err := time.Parse(contracts.DateLayout, d.Date)
		if err != nil {
			return nil, contracts.Unavailable(provider, fmt.Errorf("bad date %q: %w", d.Date, err))
		}
		points = append(points, contracts.SearchPoint{Date: t, Value: d.Value})
	}
	return points, nil
}
