package s2_signals

import (
	"regexp"
	"strings"
)

var tokenSplit = regexp.MustCompile(`[\s,]+`)

var stopwords = map[string]struct{}{
	"us": {}, "usa": {}, "uk": {}, "the": {}, "will": {}, "be": {}, "in": {}, "of": {}, "to": {}, "and": {}, "or": {},
	"for": {}, "on": {}, "at": {}, "by": {}, "from": {}, "with": {}, "an": {}, "as": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "it": {}, "its": {}, "has": {}, "have": {}, "had": {},
}

// synonyms are keyed by lowercase query token
var synonyms = map[string][]string{
	"assassination": {"shot", "kill", "attack", "shoot", "murder", "attempt"},
	"trump":         {"donald", "president"},
	"covid":         {"corona", "pandemic", "virus"},
	"war":           {"invasion", "conflict", "military"},
	"election":      {"vote", "ballot", "win"},
	"ukraine":       {"war", "invasion", "conflict"},
	"chatgpt":       {"openai", "ai"},
}

// Per-token match weights
const (
	weightExact   = 1.0
	weightPrefix  = 0.5
	weightSynonym = 0.7
)

// Tokenize lowercases query, splits on whitespace and commas, and drops
// short tokens and stopwords
func Tokenize(query string) []string {
	var tokens []string
	for _, t := range tokenSplit.Split(strings.ToLower(query), -1) {
		if len(t) <= 2 {
			continue
		}
		if _, stop := stopwords[t]; stop {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

func wordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
}

// tokenPattern holds the compiled patterns for one query token
type tokenPattern struct {
	exact    *regexp.Regexp
	prefix   *regexp.Regexp // nil for tokens shorter than 5 runes
	synonyms []*regexp.Regexp
}

// Matcher scores candidate texts against one query. Patterns are compiled
// once in NewMatcher, so a Matcher should be reused across candidates.
type Matcher struct {
	tokens []tokenPattern
}

// NewMatcher tokenizes query and compiles its match patterns
func NewMatcher(query string) *Matcher {
	tokens := Tokenize(query)
	m := &Matcher{tokens: make([]tokenPattern, 0, len(tokens))}
	for _, token := range tokens {
		tp := tokenPattern{exact: wordPattern(token)}
		if len(token) >= 5 {
			tp.prefix = regexp.MustCompile(`\b` + regexp.QuoteMeta(token[:4]))
		}
		for _, syn := range synonyms[token] {
			tp.synonyms = append(tp.synonyms, wordPattern(syn))
		}
		m.tokens = append(m.tokens, tp)
	}
	return m
}

// Score returns the relevance of text, in [0, 1].
// Matching is on word boundaries, so "nato" never matches "senator".
// ⭐ SSOT: keyword-to-market relevance
func (m *Matcher) Score(text string) float64 {
	if len(m.tokens) == 0 {
		return 0
	}

	lower := strings.ToLower(text)
	total := 0.0
	for _, tp := range m.tokens {
		if tp.exact.MatchString(lower) {
			total += weightExact
			continue
		}

		if tp.prefix != nil && tp.prefix.MatchString(lower) {
			total += weightPrefix
			continue
		}

		for _, syn := range tp.synonyms {
			if syn.MatchString(lower) {
				total += weightSynonym
				break
			}
		}
	}

	return min(total/float64(len(m.tokens)), 1.0)
}

// Relevance scores a single text against query
func Relevance(query, text string) float64 {
	return NewMatcher(query).Score(text)
}
