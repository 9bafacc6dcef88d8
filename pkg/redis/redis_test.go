package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/wonny/blackswan/backend/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Expected disabled client ping to succeed, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), GammaRateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != GammaRateLimit.Limit {
		t.Errorf("Expected remaining = %d, got %d", GammaRateLimit.Limit, remaining)
	}

	if err := limiter.Wait(context.Background(), GeminiRateLimit); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}

	if err := cache.Set(ctx, "key", "value", TTLShort); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	if err := cache.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestCache_GetOrSetDisabledCallsLoader(t *testing.T) {
	cache := NewCache(Disabled(), "test")

	calls := 0
	var got []string
	err := cache.GetOrSet(context.Background(), MarketListingKey(true, false), &got, TTLLong, func() (interface{}, error) {
		calls++
		return []string{"Will Trump win?", "Fed rate cut in March?"}, nil
	})
	if err != nil {
		t.Fatalf("GetOrSet() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected loader to run once, got %d", calls)
	}
	if len(got) != 2 || got[0] != "Will Trump win?" {
		t.Errorf("Unexpected loaded value: %v", got)
	}
}

func TestCache_GetOrSetLoaderError(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	loadErr := errors.New("gamma down")

	var got []string
	err := cache.GetOrSet(context.Background(), "k", &got, TTLShort, func() (interface{}, error) {
		return nil, loadErr
	})
	if !errors.Is(err, loadErr) {
		t.Errorf("Expected loader error, got %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "MarketListingKey",
			fn:       func() string { return MarketListingKey(true, false) },
			expected: "polymarket:markets:closed=true:archived=false",
		},
		{
			name:     "MarketVolumeKey",
			fn:       func() string { return MarketVolumeKey("0xabc", "2024-11-05") },
			expected: "polymarket:volume:0xabc:2024-11-05",
		},
		{
			name:     "QuoteKey",
			fn:       func() string { return QuoteKey("^GSPC") },
			expected: "quote:^GSPC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
