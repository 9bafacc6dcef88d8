package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/config"
	"github.com/wonny/blackswan/backend/pkg/httputil"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

const provider = "gemini"

var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

// Chooser asks a Gemini model to pick the candidate that best matches a
// query, or none
// ⭐ SSOT: LLM calls happen only through this chooser
type Chooser struct {
	httpClient *httputil.Client
	cfg        config.GeminiConfig
	logger     *logger.Logger
}

// NewChooser creates a new Gemini chooser. Rate limiting is configured on
// httpClient.
func NewChooser(httpClient *httputil.Client, cfg config.GeminiConfig, log *logger.Logger) *Chooser {
	return &Chooser{
		httpClient: httpClient,
		cfg:        cfg,
		logger:     log.WithComponent("gemini"),
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// verdict is the JSON object the model is asked to return
type verdict struct {
	MarketIndex *int   `json:"marketIndex"`
	Confidence  string `json:"confidence"`
	Reasoning   string `json:"reasoning"`
}

func (c *Chooser) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model, url.QueryEscape(c.cfg.APIKey))
}

// ChooseBest returns the selected candidate's 0-based index, or None when
// the model answers 0
func (c *Chooser) ChooseBest(ctx context.Context, query string, date time.Time, candidates []contracts.ScoredCandidate) (*contracts.Selection, error) {
	if len(candidates) == 0 {
		return &contracts.Selection{None: true, Reasoning: "no candidates"}, nil
	}
	if c.cfg.APIKey == "" {
		return nil, contracts.Unavailable(provider, errors.New("GEMINI_API_KEY is not set"))
	}

	req := generateRequest{
		Contents:         []content{{Parts: []part{{Text: BuildPrompt(query, date, candidates)}}}},
		GenerationConfig: generationConfig{Temperature: 0.1},
	}

	var resp generateResponse
	if err := c.httpClient.PostJSONInto(ctx, c.endpoint(), req, &resp); err != nil {
		return nil, contracts.Unavailable(provider, err)
	}

	var text strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			text.WriteString(p.Text)
		}
	}

	sel, err := ParseSelection(text.String(), len(candidates))
	if err != nil {
		return nil, contracts.Unavailable(provider, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"query":      query,
		"date":       date.Format(contracts.DateLayout),
		"candidates": len(candidates),
		"none":       sel.None,
		"index":      sel.Index,
		"confidence": sel.Confidence,
	}).Info("Market chosen")

	return sel, nil
}

// ParseSelection extracts the verdict from a model reply. Index 0 means
// none relevant; a missing or out-of-range index falls back to the top
// candidate with medium confidence.
func ParseSelection(reply string, n int) (*contracts.Selection, error) {
	raw := jsonObject.FindString(reply)
	if raw == "" {
		return nil, fmt.Errorf("reply has no JSON object: %.100q", reply)
	}

	var v verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}

	if v.MarketIndex != nil && *v.MarketIndex == 0 {
		return &contracts.Selection{None: true, Confidence: v.Confidence, Reasoning: v.Reasoning}, nil
	}

	if v.MarketIndex == nil || *v.MarketIndex < 1 || *v.MarketIndex > n {
		return &contracts.Selection{
			Index:      0,
			Confidence: "medium",
			Reasoning:  "Auto-selected by relevance score",
		}, nil
	}

	return &contracts.Selection{
		Index:      *v.MarketIndex - 1,
		Confidence: v.Confidence,
		Reasoning:  v.Reasoning,
	}, nil
}
