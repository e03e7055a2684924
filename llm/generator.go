// Package llm generates topic titles and long-form articles through the
// Cohere chat API.
package llm

import (
	"context"

	"blogbot/types"
)

// Generator produces topic candidates and article drafts. The orchestrator
// wraps every call in the retry policy for model calls.
type Generator interface {
	// GenerateTopic proposes one topic title for the category, steered away
	// from recent titles and toward the supplied news context.
	GenerateTopic(ctx context.Context, category, description, newsContext string, recentTitles []string) (string, error)

	// GenerateArticle writes a complete draft for an accepted topic.
	GenerateArticle(ctx context.Context, title, category, description string) (*types.BlogDraft, error)
}
