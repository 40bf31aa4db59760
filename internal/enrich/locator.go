package enrich

import (
	"strings"
	"unicode"
)

// Locator extracts a candidate place name from free text. It is a heuristic
// component, not a source of truth; implementations are swappable so a real
// geocoder can replace the default without touching the scheduler.
type Locator interface {
	// Extract returns the best candidate and whether anything was found.
	Extract(text string) (string, bool)
}

// HeuristicLocator scans for capitalized word tokens and matches them against
// a curated set of known place names. A capitalized token with no curated
// match is still returned as a best-effort guess.
type HeuristicLocator struct {
	known map[string]string // lowercased token(s) -> canonical name
}

func NewHeuristicLocator() *HeuristicLocator {
	l := &HeuristicLocator{known: make(map[string]string, len(curatedPlaces))}
	for _, name := range curatedPlaces {
		l.known[strings.ToLower(name)] = name
	}
	return l
}

var curatedPlaces = []string{
	"London", "Paris", "Berlin", "Madrid", "Rome", "Amsterdam", "Vienna",
	"Moscow", "Istanbul", "Dubai", "Mumbai", "Singapore", "Jakarta",
	"Tokyo", "Seoul", "Beijing", "Shanghai", "Sydney", "Melbourne",
	"New York", "Los Angeles", "Chicago", "Toronto", "Vancouver",
	"Mexico City", "São Paulo", "Buenos Aires", "Cairo", "Lagos",
	"東京", "北京", "Москва", "Киев",
}

// Extract implements Locator.
func (l *HeuristicLocator) Extract(text string) (string, bool) {
	tokens := tokenize(text)

	// Curated bigrams first ("New York" beats "New").
	for i := 0; i+1 < len(tokens); i++ {
		if !isCandidate(tokens[i]) || !isCandidate(tokens[i+1]) {
			continue
		}
		pair := strings.ToLower(tokens[i] + " " + tokens[i+1])
		if name, ok := l.known[pair]; ok {
			return name, true
		}
	}
	for _, tok := range tokens {
		if !isCandidate(tok) {
			continue
		}
		if name, ok := l.known[strings.ToLower(tok)]; ok {
			return name, true
		}
	}

	// Best-effort guess: first capitalized token. Accuracy is knowingly low;
	// callers treat the result as a hint, not a fact.
	for _, tok := range tokens {
		if isCandidate(tok) {
			return tok, true
		}
	}
	return "", false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// isCandidate reports whether the token looks like a proper noun. Tokens from
// caseless scripts (CJK and friends) qualify, since capitalization carries no
// signal there.
func isCandidate(tok string) bool {
	for _, r := range tok {
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			return true
		}
		if unicode.IsLetter(r) && !unicode.IsLower(r) {
			// Caseless script.
			return true
		}
		return false
	}
	return false
}
