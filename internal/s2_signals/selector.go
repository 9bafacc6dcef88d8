package s2_signals

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// MaxCandidates is how many ranked markets go to disambiguation
const MaxCandidates = 20

// NearbyDays widens the search to markets ending around the target date
const NearbyDays = 30

// searchTier is one stage of the widening candidate search
type searchTier struct {
	name      string
	threshold float64
	include   func(m *contracts.MarketCandidate, date time.Time) bool
}

// searchTiers are tried in order; the first non-empty tier wins
var searchTiers = []searchTier{
	{
		name:      "active",
		threshold: 0.1,
		include: func(m *contracts.MarketCandidate, date time.Time) bool {
			return !m.Closed && m.ActiveOn(date)
		},
	},
	{
		name:      "closed",
		threshold: 0.1,
		include: func(m *contracts.MarketCandidate, date time.Time) bool {
			return m.ActiveOn(date)
		},
	},
	{
		name:      "nearby",
		threshold: 0.1,
		include: func(m *contracts.MarketCandidate, date time.Time) bool {
			if m.EndDate == nil {
				return false
			}
			return math.Abs(m.EndDate.Sub(date).Hours()/24) <= NearbyDays
		},
	},
	{
		name:      "any",
		threshold: 0.15,
		include: func(*contracts.MarketCandidate, time.Time) bool {
			return true
		},
	},
}

// Shortlist runs the tiered search and ranks up to MaxCandidates markets
func Shortlist(markets []contracts.MarketCandidate, keyword string, date time.Time) []contracts.ScoredCandidate {
	// Noon keeps start/end containment stable across time zones.
	target := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC)
	matcher := NewMatcher(keyword)

	for _, tier := range searchTiers {
		var found []contracts.ScoredCandidate
		for i := range markets {
			m := &markets[i]
			if !tier.include(m, target) {
				continue
			}
			score := matcher.Score(m.Question)
			if score < tier.threshold {
				continue
			}
			found = append(found, contracts.ScoredCandidate{
				Market:    *m,
				Relevance: score,
				WasActive: m.ActiveOn(target),
				Tier:      tier.name,
			})
		}
		if len(found) > 0 {
			RankCandidates(found)
			if len(found) > MaxCandidates {
				found = found[:MaxCandidates]
			}
			return found
		}
	}
	return nil
}

// RankCandidates orders by was-active, relevance (0.1 tolerance), volume
func RankCandidates(c []contracts.ScoredCandidate) {
	sort.SliceStable(c, func(i, j int) bool {
		a, b := c[i], c[j]
		if a.WasActive != b.WasActive {
			return a.WasActive
		}
		if math.Abs(a.Relevance-b.Relevance) > 0.1 {
			return a.Relevance > b.Relevance
		}
		return a.Market.Volume24h > b.Market.Volume24h
	})
}

// SelectedMarket is the disambiguated market with its ranking context
type SelectedMarket struct {
	Candidate    contracts.ScoredCandidate
	Selection    contracts.Selection
	TotalMarkets int
}

// MarketSelector finds the one prediction market a keyword refers to
// ⭐ SSOT: candidate search and disambiguation
type MarketSelector struct {
	listings contracts.MarketListingProvider
	chooser  contracts.MarketChooser
	logger   *logger.Logger
}

// NewMarketSelector creates a new market selector
func NewMarketSelector(listings contracts.MarketListingProvider, chooser contracts.MarketChooser, log *logger.Logger) *MarketSelector {
	return &MarketSelector{
		listings: listings,
		chooser:  chooser,
		logger:   log.WithComponent("market_selector"),
	}
}

// Select returns ErrNoRelevantMarket when no tier yields candidates or the
// chooser rejects all of them
func (s *MarketSelector) Select(ctx context.Context, keyword string, date time.Time) (*SelectedMarket, error) {
	markets, err := s.listings.ListMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}

	candidates := Shortlist(markets, keyword, date)
	s.logger.WithFields(map[string]interface{}{
		"keyword":    keyword,
		"date":       date.Format(contracts.DateLayout),
		"markets":    len(markets),
		"candidates": len(candidates),
	}).Info("Market candidates shortlisted")

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates for %q on %s: %w", keyword, date.Format(contracts.DateLayout), contracts.ErrNoRelevantMarket)
	}

	sel, err := s.chooser.ChooseBest(ctx, keyword, date, candidates)
	if err != nil {
		return nil, fmt.Errorf("choose market: %w", err)
	}
	if sel.None {
		return nil, fmt.Errorf("all candidates rejected for %q (%s): %w", keyword, sel.Reasoning, contracts.ErrNoRelevantMarket)
	}
	if sel.Index < 0 || sel.Index >= len(candidates) {
		return nil, fmt.Errorf("selection index %d out of range [0,%d): %w", sel.Index, len(candidates), contracts.ErrNoRelevantMarket)
	}

	return &SelectedMarket{
		Candidate:    candidates[sel.Index],
		Selection:    *sel,
		TotalMarkets: len(markets),
	}, nil
}
