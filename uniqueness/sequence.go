package uniqueness

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// SequenceScorer abstracts the character-alignment similarity measure so the
// algorithm can be swapped without touching the engine. Implementations must
// return a value in [0,1], with 1 meaning fully aligned.
type SequenceScorer interface {
	Ratio(a, b string) float64
}

// matchingBlocksScorer scores strings by the Ratcliff-Obershelp
// matching-blocks ratio: 2*M/T where M is the total length of the longest
// common matching blocks and T the combined length. The 0.70 duplicate
// threshold is calibrated against this measure; substituting a different
// metric (e.g. Levenshtein) requires re-validating the threshold.
type matchingBlocksScorer struct{}

func (matchingBlocksScorer) Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return difflib.NewMatcher(splitChars(a), splitChars(b)).Ratio()
}

// splitChars turns a string into one element per rune so the line-oriented
// matcher operates at character granularity.
func splitChars(s string) []string {
	return strings.Split(s, "")
}
