package trends

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/config"
	"github.com/wonny/blackswan/backend/pkg/httputil"
	"github.com/wonny/blackswan/backend/pkg/logger"
	"github.com/wonny/blackswan/backend/pkg/throttle"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeClock) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	httpClient := httputil.New(&config.Config{Env: "test"}, logger.Nop()).DisableRetry()
	return NewClient(httpClient, throttle.New(3*time.Second, clock), srv.URL+"/", logger.Nop()), clock
}

func TestSeries(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trends", r.URL.Path)
		assert.Equal(t, "chatgpt", r.URL.Query().Get("keyword"))
		assert.Equal(t, "2022-11-22", r.URL.Query().Get("start"))
		assert.Equal(t, "2022-11-30", r.URL.Query().Get("end"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keyword": "chatgpt",
			"all_data": []map[string]interface{}{
				{"date": "2022-11-29", "value": 4},
				{"date": "2022-11-30", "value": 100},
			},
		})
	})

	points, err := c.Series(context.Background(), "chatgpt",
		time.Date(2022, 11, 22, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 11, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2022-11-30", points[1].Date.Format(contracts.DateLayout))
	assert.Equal(t, 100.0, points[1].Value)
}

func TestSeriesThrottlesConsecutiveCalls(t *testing.T) {
	c, clock := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"all_data": []}`))
	})

	for i := 0; i < 3; i++ {
		_, err := c.Series(context.Background(), "covid", clock.now.AddDate(0, 0, -8), clock.now)
		require.NoError(t, err)
	}
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, clock.sleeps)
}

func TestSeriesRateLimited(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Rate limited by Google Trends", "error_type": "rate_limit"}`))
	})

	_, err := c.Series(context.Background(), "covid", time.Now().AddDate(0, 0, -8), time.Now())
	assert.ErrorIs(t, err, contracts.ErrProviderUnavailable)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestSeriesSidecarDown(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	_, err := c.Series(context.Background(), "covid", time.Now().AddDate(0, 0, -8), time.Now())
	assert.ErrorIs(t, err, contracts.ErrProviderUnavailable)
}
