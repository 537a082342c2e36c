package conversation

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Default names that must never participate in identity matching: treating
// them as matchable would correlate every anonymous chat with every booking.
var unmatchableNames = map[string]struct{}{
	"":                 {},
	"unknown":          {},
	"desconocido":      {},
	"cliente whatsapp": {},
}

// stripDiacritics builds the decompose/strip/recompose chain. Chained
// transformers carry state, so each caller gets its own.
func stripDiacritics() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// NormalizeName lowercases a name, strips diacritics, and drops every
// character that is not a letter, digit or space.
func NormalizeName(name string) string {
	lower := strings.ToLower(name)
	if stripped, _, err := transform.String(stripDiacritics(), lower); err == nil {
		lower = stripped
	}
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// NamesMatch decides whether a conversation's display name and a booking's
// attendee name refer to the same person. The rules are deliberately
// permissive (recall over precision): exact match, substring containment for
// names longer than three characters, or equal first tokens longer than three
// characters. Counts derived from it are estimates.
func NamesMatch(name1, name2 string) bool {
	n1 := NormalizeName(name1)
	n2 := NormalizeName(name2)

	if _, ok := unmatchableNames[n1]; ok {
		return false
	}
	if _, ok := unmatchableNames[n2]; ok {
		return false
	}

	if n1 == n2 {
		return true
	}

	if len(n1) > 3 && strings.Contains(n2, n1) {
		return true
	}
	if len(n2) > 3 && strings.Contains(n1, n2) {
		return true
	}

	first1, _, _ := strings.Cut(n1, " ")
	first2, _, _ := strings.Cut(n2, " ")
	if len(first1) > 3 && first1 == first2 {
		return true
	}

	return false
}

// HasBooking reports whether any booking attendee name fuzzy-matches the
// conversation name. Callers counting bookings per service must deduplicate
// contributing conversation names by NormalizeName first.
func HasBooking(conversationName string, attendeeNames []string) bool {
	for _, attendee := range attendeeNames {
		if NamesMatch(conversationName, attendee) {
			return true
		}
	}
	return false
}
