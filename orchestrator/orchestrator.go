// Package orchestrator runs the end-to-end blog pipeline: pick a category,
// gather news context, generate a unique topic, write the article, upload a
// cover, publish, and persist every step.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"blogbot/config"
	"blogbot/events"
	"blogbot/retry"
	"blogbot/store"
	"blogbot/types"
	"blogbot/uniqueness"
)

// NewsSource supplies the trending-news prompt fragment for a category.
type NewsSource interface {
	Context(ctx context.Context, category string) string
}

// Generator produces topic titles and article drafts.
type Generator interface {
	GenerateTopic(ctx context.Context, category, description, newsContext string, recentTitles []string) (string, error)
	GenerateArticle(ctx context.Context, title, category, description string) (*types.BlogDraft, error)
}

// Publisher posts one finished blog to the publishing platform.
type Publisher interface {
	PublishPost(ctx context.Context, blog *types.Blog) (*types.PublishResult, error)
}

// CoverUploader stores a cover image and returns its public URL.
type CoverUploader interface {
	UploadFromURL(ctx context.Context, sourceURL, slug string) (string, error)
}

// TopicIndex is the optional exact-duplicate fast path. A hit skips the
// similarity scan for that candidate; index errors are ignored and the scan
// stays authoritative.
type TopicIndex interface {
	Seen(ctx context.Context, hash string) (bool, error)
	Add(ctx context.Context, hash string) error
}

// Pipeline wires the pipeline stages together. Optional collaborators
// (Covers, Index, Emitter, CoverSourceURL) may be left zero.
type Pipeline struct {
	Store     store.TopicStore
	News      NewsSource
	Generator Generator
	Publisher Publisher
	Engine    *uniqueness.Engine

	Covers         CoverUploader
	CoverSourceURL string
	Index          TopicIndex
	Emitter        events.Emitter

	// Now is swappable in tests; defaults to time.Now.
	Now func() time.Time
}

// Report summarizes one successful pipeline run.
type Report struct {
	Category      string
	TopicID       string
	Title         string
	TopicAttempts int
	BlogID        string
	PostURL       string
}

// RunOnce executes a single pipeline cycle. It returns store.ErrNoCategories
// when rotation has nothing to pick, *NoUniqueTopicError when every candidate
// was a duplicate, and *StageError for generation or publish failures.
func (p *Pipeline) RunOnce(ctx context.Context) (*Report, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	category, err := p.Store.NextCategory(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("pipeline: selected category %q", category.Name)

	newsContext := ""
	if p.News != nil {
		newsContext = p.News.Context(ctx, category.Name)
	}

	cutoff := now().Add(-config.HistoryLookback)
	history, err := p.Store.HistorySince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic history: %w", err)
	}
	log.Printf("pipeline: comparing against %d historical titles", len(history))

	title, attempts, err := p.findUniqueTopic(ctx, category, newsContext, history)
	if err != nil {
		return nil, err
	}

	topic := &types.Topic{
		Title:        title,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Status:       types.TopicStatusPending,
		Hash:         uniqueness.TopicHash(title),
		CreatedAt:    now().UTC(),
		UpdatedAt:    now().UTC(),
	}
	topicID, err := p.Store.SaveTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to save topic: %w", err)
	}
	topic.ID = topicID
	if p.Index != nil {
		if err := p.Index.Add(ctx, topic.Hash); err != nil {
			log.Printf("pipeline: topic index add failed: %v", err)
		}
	}
	p.emit(events.Event{Kind: events.EventTopicAccepted, Category: category.Name, TopicID: topicID, Title: title})
	log.Printf("pipeline: accepted topic %q after %d attempt(s)", title, attempts)

	blog, err := p.generateBlog(ctx, category, topic)
	if err != nil {
		p.fail(ctx, topic, category.Name, err)
		return nil, &StageError{Stage: StageGeneration, Err: err}
	}
	p.emit(events.Event{Kind: events.EventBlogGenerated, Category: category.Name, TopicID: topicID, Title: blog.Title})

	result, err := retry.Do(ctx, retry.PublishPolicy(), func(ctx context.Context) (*types.PublishResult, error) {
		return p.Publisher.PublishPost(ctx, blog)
	})
	if err != nil {
		p.fail(ctx, topic, category.Name, err)
		return nil, &StageError{Stage: StagePublish, Err: err}
	}

	if err := p.Store.MarkBlogPublished(ctx, blog.ID, *result); err != nil {
		return nil, fmt.Errorf("published post %s but failed to record it: %w", result.URL, err)
	}
	if err := p.Store.UpdateTopicStatus(ctx, topicID, types.TopicStatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to complete topic %s: %w", topicID, err)
	}
	p.emit(events.Event{Kind: events.EventPublished, Category: category.Name, TopicID: topicID, Title: blog.Title, URL: result.URL})
	log.Printf("pipeline: published %q at %s", blog.Title, result.URL)

	return &Report{
		Category:      category.Name,
		TopicID:       topicID,
		Title:         blog.Title,
		TopicAttempts: attempts,
		BlogID:        blog.ID,
		PostURL:       result.URL,
	}, nil
}

// findUniqueTopic runs the generate-and-check loop: propose a title, record
// it, and accept the first one below the duplicate threshold. Rejected titles
// join the working history so later candidates are compared against them too.
func (p *Pipeline) findUniqueTopic(ctx context.Context, category *types.Category, newsContext string, history []uniqueness.HistoryEntry) (string, int, error) {
	recentTitles := make([]string, 0, len(history))
	for _, entry := range history {
		recentTitles = append(recentTitles, entry.Title)
	}

	bestScore := 0.0
	for attempt := 1; attempt <= config.MaxTopicAttempts; attempt++ {
		title, err := retry.Do(ctx, retry.GenerationPolicy(), func(ctx context.Context) (string, error) {
			return p.Generator.GenerateTopic(ctx, category.Name, category.Description, newsContext, recentTitles)
		})
		if err != nil {
			return "", attempt, &StageError{Stage: StageGeneration, Err: err}
		}

		record := &types.GenerationRecord{
			CategoryID:   category.ID,
			CategoryName: category.Name,
			Titles:       []string{title},
			GeneratedAt:  time.Now().UTC(),
		}
		if err := p.Store.RecordGeneration(ctx, record); err != nil {
			log.Printf("pipeline: failed to record generated title: %v", err)
		}

		if p.Index != nil {
			if seen, err := p.Index.Seen(ctx, uniqueness.TopicHash(title)); err == nil && seen {
				log.Printf("pipeline: attempt %d/%d: %q already indexed, skipping scan",
					attempt, config.MaxTopicAttempts, title)
				p.emit(events.Event{Kind: events.EventTopicRejected, Category: category.Name, Title: title, Score: 1})
				history = append(history, uniqueness.HistoryEntry{Title: title})
				recentTitles = append(recentTitles, title)
				continue
			}
		}

		verdict := p.Engine.Evaluate(title, history)
		if !verdict.IsDuplicate {
			return title, attempt, nil
		}

		log.Printf("pipeline: attempt %d/%d: %q too similar to %q (score %.2f)",
			attempt, config.MaxTopicAttempts, title, verdict.Matched.Title, verdict.Score)
		p.emit(events.Event{Kind: events.EventTopicRejected, Category: category.Name, Title: title, Score: verdict.Score})
		if verdict.Score > bestScore {
			bestScore = verdict.Score
		}
		history = append(history, uniqueness.HistoryEntry{Title: title})
		recentTitles = append(recentTitles, title)
	}

	return "", config.MaxTopicAttempts, &NoUniqueTopicError{
		Category:  category.Name,
		Attempts:  config.MaxTopicAttempts,
		BestScore: bestScore,
	}
}

// generateBlog writes the article, attaches a cover when configured, and
// persists the draft. Cover upload failure degrades to publishing without one.
func (p *Pipeline) generateBlog(ctx context.Context, category *types.Category, topic *types.Topic) (*types.Blog, error) {
	if err := p.Store.UpdateTopicStatus(ctx, topic.ID, types.TopicStatusInProgress); err != nil {
		return nil, fmt.Errorf("failed to mark topic in progress: %w", err)
	}

	draft, err := retry.Do(ctx, retry.GenerationPolicy(), func(ctx context.Context) (*types.BlogDraft, error) {
		return p.Generator.GenerateArticle(ctx, topic.Title, category.Name, category.Description)
	})
	if err != nil {
		return nil, err
	}

	blog := &types.Blog{
		TopicID:         topic.ID,
		CategoryID:      category.ID,
		CategoryName:    category.Name,
		Title:           draft.Title,
		Content:         draft.Content,
		MetaDescription: draft.MetaDescription,
		Tags:            draft.Tags,
		WordCount:       draft.WordCount,
		Status:          types.BlogStatusDraft,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}

	if p.Covers != nil && p.CoverSourceURL != "" {
		coverURL, err := p.Covers.UploadFromURL(ctx, p.CoverSourceURL, slugify(blog.Title))
		if err != nil {
			log.Printf("pipeline: cover upload failed, publishing without cover: %v", err)
		} else {
			blog.CoverImageURL = coverURL
		}
	}

	blogID, err := p.Store.SaveBlog(ctx, blog)
	if err != nil {
		return nil, fmt.Errorf("failed to save blog: %w", err)
	}
	blog.ID = blogID
	return blog, nil
}

// fail marks the topic failed and emits a run_failed event.
func (p *Pipeline) fail(ctx context.Context, topic *types.Topic, category string, cause error) {
	if err := p.Store.UpdateTopicStatus(ctx, topic.ID, types.TopicStatusFailed); err != nil {
		log.Printf("pipeline: failed to mark topic %s failed: %v", topic.ID, err)
	}
	p.emit(events.Event{
		Kind:     events.EventRunFailed,
		Category: category,
		TopicID:  topic.ID,
		Title:    topic.Title,
		Error:    cause.Error(),
	})
}

func (p *Pipeline) emit(event events.Event) {
	if p.Emitter != nil {
		p.Emitter.Emit(event)
	}
}

// slugify turns a title into a URL-safe object key fragment.
func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
