package geo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripDiacritics decomposes accented runes and drops the combining marks,
// so "Cinecittà" and "cinecitta" normalize to the same form.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Matcher resolves free-text area mentions against a fixed gazetteer of
// known area display names.
type Matcher struct {
	areas      []string
	normalized []string
}

// NewMatcher builds a matcher over the supplied display names. The slice is
// copied; the matcher is immutable and safe for concurrent use.
func NewMatcher(areas []string) *Matcher {
	m := &Matcher{
		areas:      make([]string, 0, len(areas)),
		normalized: make([]string, 0, len(areas)),
	}
	for _, a := range areas {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		m.areas = append(m.areas, a)
		m.normalized = append(m.normalized, Normalize(a))
	}
	return m
}

// Areas returns the known display names in their configured order.
func (m *Matcher) Areas() []string {
	out := make([]string, len(m.areas))
	copy(out, m.areas)
	return out
}

// Match returns the best-matching known area name for the query. An exact
// normalized match wins immediately. Otherwise the longest candidate whose
// normalized form contains the normalized query is returned; a longer match
// is a more specific area name. When nothing matches the original input is
// returned unchanged, so callers must tolerate unmatched free text.
func (m *Matcher) Match(query string) string {
	q := Normalize(query)
	if q == "" {
		return query
	}

	best := ""
	bestLen := -1
	for i, cand := range m.normalized {
		if cand == q {
			return m.areas[i]
		}
		if strings.Contains(cand, q) && len(cand) > bestLen {
			best = m.areas[i]
			bestLen = len(cand)
		}
	}
	if bestLen >= 0 {
		return best
	}
	return query
}

// FindMention scans free text for a mention of a known area and returns its
// display name, preferring the longest candidate. Matching is word-bounded on
// the normalized text, so "abito a Trastevere." resolves to "Trastevere".
// Returns "" when no area is mentioned.
func (m *Matcher) FindMention(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, Normalize(text))
	msg := " " + strings.Join(strings.Fields(cleaned), " ") + " "

	best := ""
	bestLen := 0
	for i, cand := range m.normalized {
		if cand == "" {
			continue
		}
		if strings.Contains(msg, " "+cand+" ") && len(cand) > bestLen {
			best = m.areas[i]
			bestLen = len(cand)
		}
	}
	return best
}

// Normalize casefolds, strips diacritics and collapses internal whitespace.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if out, _, err := transform.String(stripDiacritics, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(s), " ")
}
