// Package uniqueness scores candidate blog topics against a rolling history
// of prior titles and decides whether a candidate is a near-duplicate.
// The engine is a pure comparison function: callers bound the history to the
// lookback window before handing it over, and nothing here performs I/O.
package uniqueness

import "time"

const (
	// DefaultThreshold marks a candidate as duplicate at or above this score
	DefaultThreshold = 0.70

	// Equal weighting of token overlap and character alignment. Kept 50/50
	// for score compatibility with historical verdicts.
	defaultTokenWeight    = 0.5
	defaultSequenceWeight = 0.5
)

// HistoryEntry is one prior topic: its title and when it was persisted.
type HistoryEntry struct {
	Title     string
	CreatedAt time.Time
}

// Verdict is the outcome of evaluating one candidate against history.
type Verdict struct {
	// Score is the highest combined similarity found, in [0,1].
	Score float64
	// IsDuplicate reports Score >= threshold.
	IsDuplicate bool
	// Matched points at the history entry producing Score; nil when history
	// is empty.
	Matched *HistoryEntry
}

// Config holds engine tuning. Zero values fall back to defaults.
type Config struct {
	// Threshold at or above which a candidate is a duplicate. Default 0.70.
	Threshold float64
	// TokenWeight and SequenceWeight blend the two similarity components.
	// Defaults 0.5/0.5; they should sum to 1.
	TokenWeight    float64
	SequenceWeight float64
	// Scorer computes the character-alignment ratio. Defaults to the
	// matching-blocks scorer.
	Scorer SequenceScorer
}

// Engine evaluates candidates. Safe for concurrent use: it holds only
// immutable configuration.
type Engine struct {
	threshold      float64
	tokenWeight    float64
	sequenceWeight float64
	scorer         SequenceScorer
}

// NewEngine creates an engine with defaults applied.
func NewEngine(cfg Config) *Engine {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.TokenWeight == 0 && cfg.SequenceWeight == 0 {
		cfg.TokenWeight = defaultTokenWeight
		cfg.SequenceWeight = defaultSequenceWeight
	}
	if cfg.Scorer == nil {
		cfg.Scorer = matchingBlocksScorer{}
	}
	return &Engine{
		threshold:      cfg.Threshold,
		tokenWeight:    cfg.TokenWeight,
		sequenceWeight: cfg.SequenceWeight,
		scorer:         cfg.Scorer,
	}
}

// Evaluate scores candidate against every history entry and returns the
// verdict for the single most-similar one. Empty history always yields
// score 0 and not-duplicate.
func (e *Engine) Evaluate(candidate string, history []HistoryEntry) Verdict {
	verdict := Verdict{}
	for i := range history {
		score := e.Similarity(candidate, history[i].Title)
		if verdict.Matched == nil || score > verdict.Score {
			verdict.Score = score
			verdict.Matched = &history[i]
		}
	}
	verdict.IsDuplicate = verdict.Matched != nil && verdict.Score >= e.threshold
	return verdict
}

// Similarity is the combined score between two titles: the weighted average
// of token-set Jaccard overlap and the sequence-alignment ratio over the
// normalized strings.
func (e *Engine) Similarity(a, b string) float64 {
	token := jaccard(tokenSet(a), tokenSet(b))
	sequence := e.scorer.Ratio(Normalize(a), Normalize(b))
	return e.tokenWeight*token + e.sequenceWeight*sequence
}

// Threshold reports the configured duplicate threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}
