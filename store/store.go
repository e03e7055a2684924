// Package store persists pipeline state in MongoDB: categories, accepted
// topics, generated blogs, and the generation history of every title the
// model ever proposed.
package store

import (
	"context"
	"errors"
	"time"

	"blogbot/types"
	"blogbot/uniqueness"
)

// ErrNoCategories is returned when no active category exists to rotate to.
var ErrNoCategories = errors.New("no active categories")

// TopicStore is the persistence surface the orchestrator depends on.
type TopicStore interface {
	// NextCategory picks the least recently used active category and stamps
	// its last_used_at.
	NextCategory(ctx context.Context) (*types.Category, error)

	// HistorySince returns every topic title persisted at or after cutoff,
	// accepted topics and proposed-but-rejected ones alike.
	HistorySince(ctx context.Context, cutoff time.Time) ([]uniqueness.HistoryEntry, error)

	// SaveTopic persists an accepted topic and returns its ID.
	SaveTopic(ctx context.Context, topic *types.Topic) (string, error)

	// RecordGeneration appends proposed titles to the generation history.
	RecordGeneration(ctx context.Context, record *types.GenerationRecord) error

	// UpdateTopicStatus transitions a topic between lifecycle states.
	UpdateTopicStatus(ctx context.Context, topicID, status string) error

	// SaveBlog persists a generated blog and returns its ID.
	SaveBlog(ctx context.Context, blog *types.Blog) (string, error)

	// MarkBlogPublished records the platform post reference on a blog.
	MarkBlogPublished(ctx context.Context, blogID string, result types.PublishResult) error

	// RecentTopics lists persisted topics, newest first.
	RecentTopics(ctx context.Context, limit int) ([]types.Topic, error)
}
