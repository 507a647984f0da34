package places

import (
	"regexp"
	"strings"
)

const (
	expandLengthThreshold = 50
	expandWordThreshold   = 3
	minVariantWords       = 2
)

// Short marketing buzzwords that add noise without narrowing a places query.
var genericQueryWords = map[string]struct{}{
	"tech": {}, "saas": {}, "app": {}, "apps": {}, "ai": {}, "b2b": {},
	"b2c": {}, "crm": {}, "seo": {}, "web": {}, "online": {}, "digital": {},
	"best": {}, "top": {}, "new": {},
}

var locationHintPattern = regexp.MustCompile(`(?i)^(in|near|at|around)$`)

// ExpandQuery turns one free-text query into an ordered, deduplicated list of
// variants, the original always first. Long compound queries get up to two
// extra variants to widen provider recall: the first half of the words, and a
// subset keeping only location-like or sufficiently specific words.
func ExpandQuery(query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	variants := []string{query}
	words := strings.Fields(query)
	if len(query) <= expandLengthThreshold || len(words) <= expandWordThreshold {
		return variants
	}

	if half := strings.Join(words[:len(words)/2], " "); countWords(half) >= minVariantWords {
		variants = appendVariant(variants, half)
	}

	filtered := make([]string, 0, len(words))
	for i, word := range words {
		lower := strings.ToLower(strings.Trim(word, ",."))
		if _, generic := genericQueryWords[lower]; generic {
			continue
		}
		// Location prepositions and whatever follows them stay; so do
		// longer, more specific words.
		if locationHintPattern.MatchString(lower) || len([]rune(lower)) >= 5 || followsLocationHint(words, i) {
			filtered = append(filtered, word)
		}
	}
	if len(filtered) >= minVariantWords {
		variants = appendVariant(variants, strings.Join(filtered, " "))
	}

	return variants
}

func followsLocationHint(words []string, i int) bool {
	return i > 0 && locationHintPattern.MatchString(strings.ToLower(words[i-1]))
}

func appendVariant(variants []string, candidate string) []string {
	candidate = strings.TrimSpace(candidate)
	for _, existing := range variants {
		if strings.EqualFold(existing, candidate) {
			return variants
		}
	}
	return append(variants, candidate)
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
