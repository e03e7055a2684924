package types

import "time"

// Topic lifecycle statuses. A topic is created as pending once it passes the
// uniqueness check, moves to in_progress while content is generated, and ends
// completed or failed.
const (
	TopicStatusPending    = "pending"
	TopicStatusInProgress = "in_progress"
	TopicStatusCompleted  = "completed"
	TopicStatusFailed     = "failed"
)

// Blog statuses.
const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
)

// Category is a content category. Rotation picks the least recently used one.
type Category struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	IsActive    bool      `bson:"is_active" json:"is_active"`
	LastUsedAt  time.Time `bson:"last_used_at,omitempty" json:"last_used_at,omitempty"`
}

// Topic is an accepted blog topic. Only persisted topics count as history for
// duplicate detection; in-flight candidates are never compared against
// themselves.
type Topic struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Title        string    `bson:"title" json:"title"`
	CategoryID   string    `bson:"category_id" json:"category_id"`
	CategoryName string    `bson:"category_name" json:"category_name"`
	Status       string    `bson:"status" json:"status"`
	Hash         string    `bson:"hash" json:"hash"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// Blog is the generated article for a topic.
type Blog struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	TopicID         string    `bson:"topic_id" json:"topic_id"`
	CategoryID      string    `bson:"category_id" json:"category_id"`
	CategoryName    string    `bson:"category_name" json:"category_name"`
	Title           string    `bson:"title" json:"title"`
	Content         string    `bson:"content" json:"content"`
	MetaDescription string    `bson:"meta_description,omitempty" json:"meta_description,omitempty"`
	Tags            []string  `bson:"tags,omitempty" json:"tags,omitempty"`
	WordCount       int       `bson:"word_count" json:"word_count"`
	CoverImageURL   string    `bson:"cover_image_url,omitempty" json:"cover_image_url,omitempty"`
	Status          string    `bson:"status" json:"status"`
	HashnodePostID  string    `bson:"hashnode_post_id,omitempty" json:"hashnode_post_id,omitempty"`
	HashnodeURL     string    `bson:"hashnode_url,omitempty" json:"hashnode_url,omitempty"`
	PublishedAt     time.Time `bson:"published_at,omitempty" json:"published_at,omitempty"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// GenerationRecord keeps every title the model proposed for a category,
// accepted or not, so rejected candidates also count toward history.
type GenerationRecord struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	CategoryID   string    `bson:"category_id" json:"category_id"`
	CategoryName string    `bson:"category_name" json:"category_name"`
	Titles       []string  `bson:"titles" json:"titles"`
	GeneratedAt  time.Time `bson:"generated_at" json:"generated_at"`
}

// BlogDraft is the model output for a generated article before persistence.
type BlogDraft struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	MetaDescription string   `json:"meta_description"`
	Tags            []string `json:"tags"`
	WordCount       int      `json:"word_count"`
}

// PublishResult is what the blogging platform returns for a published post.
type PublishResult struct {
	PostID string `json:"post_id"`
	URL    string `json:"url"`
	Slug   string `json:"slug"`
}
