package gemini

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

// formatVolume renders a 24h volume as $1.2M, $35K or $800
func formatVolume(v float64) string {
	switch {
	case v > 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v > 1_000:
		return fmt.Sprintf("$%.0fK", v/1_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.UTC().Format(contracts.DateLayout)
}

// BuildPrompt renders the selection prompt. Candidates are numbered from 1;
// 0 is reserved for "none relevant".
func BuildPrompt(query string, date time.Time, candidates []contracts.ScoredCandidate) string {
	day := date.Format(contracts.DateLayout)

	items := make([]string, 0, len(candidates))
	for i, c := range candidates {
		status := "NOT ACTIVE"
		if c.WasActive {
			status = "ACTIVE"
		}
		items = append(items, fmt.Sprintf("%d. %s\n   Volume: %s | Active: %s to %s\n   Status on %s: %s | Keyword Match: %.0f%%",
			i+1, c.Market.Question,
			formatVolume(c.Market.Volume24h), formatDate(c.Market.StartDate), formatDate(c.Market.EndDate),
			day, status, c.Relevance*100))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a Polymarket prediction market analyst. Select the MOST RELEVANT market for this query:\n\n")
	fmt.Fprintf(&b, "EVENT: %q\nDATE: %s\n\n", query, day)
	fmt.Fprintf(&b, "RULES:\n")
	fmt.Fprintf(&b, "1. The market MUST be directly about %q, not tangentially related\n", query)
	fmt.Fprintf(&b, "2. Prefer markets that were ACTIVE on %s\n", day)
	fmt.Fprintf(&b, "3. If NO market is truly relevant, return marketIndex: 0\n")
	fmt.Fprintf(&b, "4. Focus on semantic relevance over volume or keyword score\n\n")
	fmt.Fprintf(&b, "EXAMPLES:\n")
	fmt.Fprintf(&b, "- Query \"NATO\": good \"Will NATO invoke Article 5?\"; bad \"Will Finland join NATO?\" (different event)\n")
	fmt.Fprintf(&b, "- Query \"Trump assassination\": good \"Will Trump survive assassination attempt?\"; bad \"Trump sentenced to prison?\" (different topic)\n\n")
	fmt.Fprintf(&b, "CANDIDATES:\n%s\n\n", strings.Join(items, "\n\n"))
	fmt.Fprintf(&b, "Return ONLY this JSON (no markdown):\n\n")
	fmt.Fprintf(&b, "{\n  \"marketIndex\": <0-%d>,\n  \"confidence\": \"high|medium|low\",\n  \"reasoning\": \"<max 150 chars>\"\n}\n\n", len(candidates))
	fmt.Fprintf(&b, "marketIndex 0 = NO RELEVANT MARKET. Use it if uncertain.")
	return b.String()
}
