package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/config"
	"github.com/wonny/blackswan/backend/pkg/httputil"
	"github.com/wonny/blackswan/backend/pkg/logger"
	"github.com/wonny/blackswan/backend/pkg/redis"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	httpClient := httputil.New(&config.Config{Env: "test"}, logger.Nop()).DisableRetry()
	cfg := config.PolymarketConfig{
		GammaURL:    srv.URL,
		SubgraphURL: srv.URL + "/subgraph/%s",
		GraphAPIKey: "key",
		PageSize:    2,
		MaxOffset:   6,
	}
	c := NewClient(httpClient, redis.NewCache(redis.Disabled(), "test"), cfg, logger.Nop())
	c.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func event(questions ...string) map[string]interface{} {
	markets := make([]map[string]interface{}, 0, len(questions))
	for _, q := range questions {
		markets = append(markets, map[string]interface{}{
			"question":    q,
			"conditionId": "0x" + strings.ReplaceAll(strings.ToLower(q), " ", ""),
			"startDate":   "2020-01-01T00:00:00Z",
			"endDate":     "2020-12-31",
			"volume24hr":  1500.5,
		})
	}
	return map[string]interface{}{"markets": markets}
}

func TestListMarketsPagesEveryScope(t *testing.T) {
	var mu sync.Mutex
	calls := map[string][]int{}

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/events", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "volume", q.Get("order"))
		assert.Equal(t, "false", q.Get("ascending"))
		assert.Equal(t, "2", q.Get("limit"))

		scope := "closed=" + q.Get("closed") + ",archived=" + q.Get("archived")
		offset, _ := strconv.Atoi(q.Get("offset"))
		mu.Lock()
		calls[scope] = append(calls[scope], offset)
		mu.Unlock()

		var events []map[string]interface{}
		switch {
		case scope == "closed=false,archived=false" && offset == 0:
			events = append(events, event("Covid pandemic"), event("Fed cut"))
		case scope == "closed=false,archived=false" && offset == 2:
			events = append(events, event("Tariffs"))
		case scope == "closed=true,archived=false" && offset < 6:
			// full pages until the offset ceiling; repeats are de-duplicated
			events = append(events, event("Covid pandemic"), event(fmt.Sprintf("Closed %d", offset)))
		}
		_ = json.NewEncoder(w).Encode(events)
	}))

	markets, err := c.ListMarkets(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, calls["closed=false,archived=false"])
	assert.Equal(t, []int{0, 2, 4}, calls["closed=true,archived=false"])
	assert.Equal(t, []int{0}, calls["closed=false,archived=true"])
	assert.Equal(t, []int{0}, calls["closed=true,archived=true"])

	questions := make([]string, 0, len(markets))
	for _, m := range markets {
		questions = append(questions, m.Question)
	}
	assert.Equal(t, []string{"Covid pandemic", "Fed cut", "Tariffs", "Closed 0", "Closed 2", "Closed 4"}, questions)

	first := markets[0]
	assert.Equal(t, "0xcovidpandemic", first.ConditionID)
	assert.Equal(t, 1500.5, first.Volume24h)
	require.NotNil(t, first.StartDate)
	require.NotNil(t, first.EndDate)
	assert.True(t, first.ActiveOn(time.Date(2020, 3, 16, 0, 0, 0, 0, time.UTC)))
}

func TestListMarketsGammaFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	_, err := c.ListMarkets(context.Background())
	assert.ErrorIs(t, err, contracts.ErrProviderUnavailable)
}

func TestDailyVolume(t *testing.T) {
	var mu sync.Mutex
	var queries []string

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/subgraph/key", r.URL.Path)

		var req graphRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		queries = append(queries, req.Query)
		mu.Unlock()

		data := map[string][]graphTx{}
		switch {
		case strings.Contains(req.Query, "splits("):
			data["splits"] = []graphTx{
				{ID: "1", Timestamp: "1584316800", Amount: "1500000"},
				{ID: "2", Timestamp: "1584316900", Amount: "2255555"},
			}
		case strings.Contains(req.Query, "merges("):
			data["merges"] = []graphTx{{ID: "3", Timestamp: "1584317000", Amount: "1000000"}}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))

	vol, err := c.DailyVolume(context.Background(), "0xABC", time.Date(2020, 3, 16, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "0xABC", vol.ConditionID)
	assert.Equal(t, 3.76, vol.SplitVolume)
	assert.Equal(t, 1.0, vol.MergeVolume)
	assert.Equal(t, 4.76, vol.TotalVolume)
	assert.Equal(t, 3, vol.TransactionCount)
	assert.Equal(t, "2020-03-16", vol.Date.Format(contracts.DateLayout))

	require.Len(t, queries, 2)
	for _, q := range queries {
		assert.Contains(t, q, `condition: "0xabc"`)
		assert.Contains(t, q, `timestamp_gte: "1584316800"`)
		assert.Contains(t, q, `timestamp_lte: "1584403199"`)
	}
}

func TestDailyVolumeGraphErrors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"errors": []map[string]string{{"message": "indexing error"}},
		})
	}))

	_, err := c.DailyVolume(context.Background(), "0xabc", time.Date(2020, 3, 16, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, contracts.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "indexing error")
}

func TestDailyVolumeRequiresCondition(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	_, err := c.DailyVolume(context.Background(), "", time.Now())
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
}
