package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blogbot/types"
	"blogbot/uniqueness"
)

const connectTimeout = 10 * time.Second

// Mongo implements TopicStore on a MongoDB database.
type Mongo struct {
	client *mongo.Client

	categories *mongo.Collection
	topics     *mongo.Collection
	blogs      *mongo.Collection
	history    *mongo.Collection
}

// NewMongo connects to MongoDB and binds the pipeline collections.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	return &Mongo{
		client:     client,
		categories: db.Collection("categories"),
		topics:     db.Collection("topics"),
		blogs:      db.Collection("blogs"),
		history:    db.Collection("generation_history"),
	}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// NextCategory picks the active category with the oldest last_used_at and
// stamps it, so categories rotate least-recently-used first.
func (m *Mongo) NextCategory(ctx context.Context) (*types.Category, error) {
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "last_used_at", Value: 1}}).
		SetReturnDocument(options.After)

	var doc categoryDoc
	err := m.categories.FindOneAndUpdate(ctx,
		bson.M{"is_active": true},
		bson.M{"$set": bson.M{"last_used_at": time.Now().UTC()}},
		opts,
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNoCategories
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rotate category: %w", err)
	}

	category := doc.toCategory()
	log.Printf("store: selected category %q (last used %s)", category.Name, doc.LastUsedAt.Format(time.RFC3339))
	return &category, nil
}

// HistorySince merges accepted topic titles with generation-history titles
// created at or after cutoff. The uniqueness engine gets this slice as-is;
// time filtering happens only here.
func (m *Mongo) HistorySince(ctx context.Context, cutoff time.Time) ([]uniqueness.HistoryEntry, error) {
	var entries []uniqueness.HistoryEntry

	cursor, err := m.topics.Find(ctx, bson.M{"created_at": bson.M{"$gte": cutoff}})
	if err != nil {
		return nil, fmt.Errorf("failed to load topic history: %w", err)
	}
	var topicDocs []topicDoc
	if err := cursor.All(ctx, &topicDocs); err != nil {
		return nil, fmt.Errorf("failed to decode topic history: %w", err)
	}
	for _, doc := range topicDocs {
		entries = append(entries, uniqueness.HistoryEntry{Title: doc.Title, CreatedAt: doc.CreatedAt})
	}

	cursor, err = m.history.Find(ctx, bson.M{"generated_at": bson.M{"$gte": cutoff}})
	if err != nil {
		return nil, fmt.Errorf("failed to load generation history: %w", err)
	}
	var records []generationDoc
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode generation history: %w", err)
	}
	for _, record := range records {
		for _, title := range record.Titles {
			entries = append(entries, uniqueness.HistoryEntry{Title: title, CreatedAt: record.GeneratedAt})
		}
	}

	return entries, nil
}

// SaveTopic persists an accepted topic.
func (m *Mongo) SaveTopic(ctx context.Context, topic *types.Topic) (string, error) {
	now := time.Now().UTC()
	res, err := m.topics.InsertOne(ctx, bson.M{
		"title":         topic.Title,
		"category_id":   topic.CategoryID,
		"category_name": topic.CategoryName,
		"status":        types.TopicStatusPending,
		"hash":          topic.Hash,
		"created_at":    now,
		"updated_at":    now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save topic: %w", err)
	}
	return objectIDHex(res.InsertedID), nil
}

// RecordGeneration appends proposed titles for a category.
func (m *Mongo) RecordGeneration(ctx context.Context, record *types.GenerationRecord) error {
	_, err := m.history.InsertOne(ctx, bson.M{
		"category_id":   record.CategoryID,
		"category_name": record.CategoryName,
		"titles":        record.Titles,
		"generated_at":  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

// UpdateTopicStatus transitions a topic's lifecycle state.
func (m *Mongo) UpdateTopicStatus(ctx context.Context, topicID, status string) error {
	oid, err := primitive.ObjectIDFromHex(topicID)
	if err != nil {
		return fmt.Errorf("invalid topic id %q: %w", topicID, err)
	}
	_, err = m.topics.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{"status": status, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("failed to update topic status: %w", err)
	}
	return nil
}

// SaveBlog persists a generated blog as a draft.
func (m *Mongo) SaveBlog(ctx context.Context, blog *types.Blog) (string, error) {
	now := time.Now().UTC()
	topicOID, err := primitive.ObjectIDFromHex(blog.TopicID)
	if err != nil {
		return "", fmt.Errorf("invalid topic id %q: %w", blog.TopicID, err)
	}
	res, err := m.blogs.InsertOne(ctx, bson.M{
		"topic_id":         topicOID,
		"category_id":      blog.CategoryID,
		"category_name":    blog.CategoryName,
		"title":            blog.Title,
		"content":          blog.Content,
		"meta_description": blog.MetaDescription,
		"tags":             blog.Tags,
		"word_count":       blog.WordCount,
		"cover_image_url":  blog.CoverImageURL,
		"status":           types.BlogStatusDraft,
		"created_at":       now,
		"updated_at":       now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save blog: %w", err)
	}
	return objectIDHex(res.InsertedID), nil
}

// MarkBlogPublished records the platform post reference on a blog.
func (m *Mongo) MarkBlogPublished(ctx context.Context, blogID string, result types.PublishResult) error {
	oid, err := primitive.ObjectIDFromHex(blogID)
	if err != nil {
		return fmt.Errorf("invalid blog id %q: %w", blogID, err)
	}
	now := time.Now().UTC()
	_, err = m.blogs.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{
			"status":           types.BlogStatusPublished,
			"hashnode_post_id": result.PostID,
			"hashnode_url":     result.URL,
			"published_at":     now,
			"updated_at":       now,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to mark blog published: %w", err)
	}
	return nil
}

// RecentTopics lists persisted topics, newest first.
func (m *Mongo) RecentTopics(ctx context.Context, limit int) ([]types.Topic, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := m.topics.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	var docs []topicDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode topics: %w", err)
	}
	topics := make([]types.Topic, len(docs))
	for i, doc := range docs {
		topics[i] = doc.toTopic()
	}
	return topics, nil
}

// Internal document shapes; IDs come back as ObjectIDs and are exposed as hex.

type categoryDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	IsActive    bool               `bson:"is_active"`
	LastUsedAt  time.Time          `bson:"last_used_at"`
}

func (d categoryDoc) toCategory() types.Category {
	return types.Category{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		IsActive:    d.IsActive,
		LastUsedAt:  d.LastUsedAt,
	}
}

type topicDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Title        string             `bson:"title"`
	CategoryID   string             `bson:"category_id"`
	CategoryName string             `bson:"category_name"`
	Status       string             `bson:"status"`
	Hash         string             `bson:"hash"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d topicDoc) toTopic() types.Topic {
	return types.Topic{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		CategoryID:   d.CategoryID,
		CategoryName: d.CategoryName,
		Status:       d.Status,
		Hash:         d.Hash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type generationDoc struct {
	Titles      []string  `bson:"titles"`
	GeneratedAt time.Time `bson:"generated_at"`
}

func objectIDHex(v interface{}) string {
	if oid, ok := v.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprintf("%v", v)
}
