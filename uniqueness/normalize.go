package uniqueness

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"unicode"
)

// stopWords are common English words excluded from the token set so that
// filler vocabulary does not inflate overlap between unrelated titles.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"been": {}, "being": {}, "have": {}, "has": {}, "had": {}, "do": {},
	"does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "can": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "as": {}, "it": {}, "its": {},
	"how": {}, "what": {}, "when": {}, "where": {}, "why": {}, "who": {},
	"which": {}, "into": {}, "through": {}, "during": {}, "before": {},
	"after": {}, "above": {}, "below": {}, "up": {}, "down": {}, "out": {},
	"off": {}, "over": {}, "under": {}, "again": {}, "further": {},
	"then": {}, "once": {}, "here": {}, "there": {}, "all": {}, "both": {},
	"each": {}, "few": {}, "more": {}, "most": {}, "other": {}, "some": {},
	"such": {}, "no": {}, "nor": {}, "not": {}, "only": {}, "own": {},
	"same": {}, "so": {}, "than": {}, "too": {}, "very": {},
}

// Normalize lowercases text, replaces punctuation with spaces, and collapses
// whitespace. "Cloud-Based" and "cloud based" normalize identically.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenSet returns the distinct normalized words of text minus stop words.
func tokenSet(text string) map[string]struct{} {
	words := strings.Fields(Normalize(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stopWords[w]; skip {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// jaccard is |intersection| / |union| of two token sets. Both sets empty
// yields 0: two titles made entirely of stop words share no signal. This is
// deliberate even for self-comparison — a stop-word-only title scores at
// most the sequence-ratio half of the blend against any title, itself
// included, and is never flagged a duplicate on token evidence alone.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// TopicHash fingerprints a title as the sha256 of its sorted token set.
// Identical fingerprints mean an exact duplicate regardless of word order,
// casing, or punctuation; used by the optional fast-path index.
func TopicHash(title string) string {
	set := tokenSet(title)
	words := make([]string, 0, len(set))
	for w := range set {
		words = append(words, w)
	}
	sort.Strings(words)
	sum := sha256.Sum256([]byte(strings.Join(words, " ")))
	return hex.EncodeToString(sum[:])
}
