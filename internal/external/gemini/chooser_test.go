package gemini

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
)

func candidates() []contracts.ScoredCandidate {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
	return []contracts.ScoredCandidate{
		{Market: contracts.MarketCandidate{Question: "Will WHO declare a pandemic?", StartDate: &start, EndDate: &end, Volume24h: 2_500_000}, Relevance: 0.8, WasActive: true},
		{Market: contracts.MarketCandidate{Question: "Covid cases above 1M?", Volume24h: 42_000}, Relevance: 0.5},
		{Market: contracts.MarketCandidate{Question: "Fed emergency cut?", Volume24h: 300}, Relevance: 0.1},
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("covid", time.Date(2020, 3, 16, 0, 0, 0, 0, time.UTC), candidates())

	assert.Contains(t, p, `EVENT: "covid"`)
	assert.Contains(t, p, "1. Will WHO declare a pandemic?\n   Volume: $2.5M | Active: 2020-01-01 to 2020-12-31\n   Status on 2020-03-16: ACTIVE | Keyword Match: 80%")
	assert.Contains(t, p, "2. Covid cases above 1M?\n   Volume: $42K | Active: N/A to N/A\n   Status on 2020-03-16: NOT ACTIVE")
	assert.Contains(t, p, "Volume: $300")
	assert.Contains(t, p, `"marketIndex": <0-3>`)
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  contracts.Selection
	}{
		{
			name:  "picks a candidate",
			reply: "```json\n{\"marketIndex\": 2, \"confidence\": \"high\", \"reasoning\": \"direct\"}\n```",
			want:  contracts.Selection{Index: 1, Confidence: "high", Reasoning: "direct"},
		},
		{
			name:  "zero means none",
			reply: `{"marketIndex": 0, "confidence": "low", "reasoning": "nothing about covid"}`,
			want:  contracts.Selection{None: true, Confidence: "low", Reasoning: "nothing about covid"},
		},
		{
			name:  "out of range falls back to the top candidate",
			reply: `{"marketIndex": 9, "confidence": "high", "reasoning": "?"}`,
			want:  contracts.Selection{Index: 0, Confidence: "medium", Reasoning: "Auto-selected by relevance score"},
		},
		{
			name:  "missing index falls back to the top candidate",
			reply: `{"confidence": "high"}`,
			want:  contracts.Selection{Index: 0, Confidence: "medium", Reasoning: "Auto-selected by relevance score"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSelection(tt.reply, 3)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseSelectionRejectsProse(t *testing.T) {
	_, err := ParseSelection("I cannot decide.", 3)
	assert.Error(t, err)
}

func newTestChooser(t *testing.T, apiKey string, handler http.HandlerFunc) *Chooser {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	httpClient := httputil.New(&config.Config{Env: "test"}, logger.Nop()).DisableRetry()
	return NewChooser(httpClient, config.GeminiConfig{APIKey: apiKey, Model: "gemini-test", BaseURL: srv.URL}, logger.Nop())
}

func TestChooseBest(t *testing.T) {
	c := newTestChooser(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "Will WHO declare a pandemic?")

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{
					{"text": `{"marketIndex": 1, "confidence": "high", "reasoning": "pandemic declaration"}`},
				}}},
			},
		})
	})

	sel, err := c.ChooseBest(context.Background(), "covid", time.Date(2020, 3, 16, 0, 0, 0, 0, time.UTC), candidates())
	require.NoError(t, err)
	assert.False(t, sel.None)
	assert.Equal(t, 0, sel.Index)
	assert.Equal(t, "high", sel.Confidence)
}

func TestChooseBestUnavailable(t *testing.T) {
	c := newTestChooser(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	})
	_, err := c.ChooseBest(context.Background(), "covid", time.Now(), candidates())
	assert.ErrorIs(t, err, contracts.ErrProviderUnavailable)

	noKey := newTestChooser(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without an API key")
	})
	_, err = noKey.ChooseBest(context.Background(), "covid", time.Now(), candidates())
	assert.ErrorIs(t, err, contracts.ErrProviderUnavailable)
}

func TestChooseBestNoCandidates(t *testing.T) {
	c := newTestChooser(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without candidates")
	})
	sel, err := c.ChooseBest(context.Background(), "covid", time.Now(), nil)
	require.NoError(t, err)
	assert.True(t, sel.None)
}
