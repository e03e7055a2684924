package config

import "time"

// Uniqueness Constants
const (
	// SimilarityThreshold marks a candidate as a duplicate at or above this
	// combined score (70%)
	SimilarityThreshold = 0.70

	// HistoryLookback bounds which persisted topics count for duplicate
	// comparison (6 months)
	HistoryLookback = 180 * 24 * time.Hour

	// MaxTopicAttempts bounds the generate-and-check loop. Independent from
	// the per-call retry budget below.
	MaxTopicAttempts = 5
)

// Retry Constants
const (
	// MaxAPIAttempts is the total attempt budget for a single outbound call
	MaxAPIAttempts = 3
)

// RetryDelays is the progressive wait schedule between API attempts:
// 1 min, 5 min, 10 min.
var RetryDelays = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

// GenerationRetryDelays is the shorter backoff used for model calls.
var GenerationRetryDelays = []time.Duration{
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
}

// News Constants
const (
	// MaxHeadlines caps how many feed items feed the news context
	MaxHeadlines = 5

	// ExcerptWorkers is the worker-pool size for content extraction
	ExcerptWorkers = 3

	// ExcerptTimeout bounds a single readability extraction
	ExcerptTimeout = 30 * time.Second

	// MaxExcerptLength truncates extracted article text for prompting
	MaxExcerptLength = 600
)

// Publishing Constants
const (
	// HashnodeEndpoint is the GraphQL API endpoint
	HashnodeEndpoint = "https://gql.hashnode.com"

	// PublishTimeout bounds a single publish request
	PublishTimeout = 60 * time.Second
)
