package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogbot/events"
	"blogbot/retry"
	"blogbot/store"
	"blogbot/types"
	"blogbot/uniqueness"
)

type fakeStore struct {
	category    *types.Category
	categoryErr error
	history     []uniqueness.HistoryEntry

	savedTopics []*types.Topic
	records     []*types.GenerationRecord
	statuses    []string
	savedBlogs  []*types.Blog
	published   map[string]types.PublishResult
}

func (s *fakeStore) NextCategory(ctx context.Context) (*types.Category, error) {
	if s.categoryErr != nil {
		return nil, s.categoryErr
	}
	return s.category, nil
}

func (s *fakeStore) HistorySince(ctx context.Context, cutoff time.Time) ([]uniqueness.HistoryEntry, error) {
	return s.history, nil
}

func (s *fakeStore) SaveTopic(ctx context.Context, topic *types.Topic) (string, error) {
	s.savedTopics = append(s.savedTopics, topic)
	return fmt.Sprintf("topic-%d", len(s.savedTopics)), nil
}

func (s *fakeStore) RecordGeneration(ctx context.Context, record *types.GenerationRecord) error {
	s.records = append(s.records, record)
	return nil
}

func (s *fakeStore) UpdateTopicStatus(ctx context.Context, topicID, status string) error {
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *fakeStore) SaveBlog(ctx context.Context, blog *types.Blog) (string, error) {
	s.savedBlogs = append(s.savedBlogs, blog)
	return fmt.Sprintf("blog-%d", len(s.savedBlogs)), nil
}

func (s *fakeStore) MarkBlogPublished(ctx context.Context, blogID string, result types.PublishResult) error {
	if s.published == nil {
		s.published = make(map[string]types.PublishResult)
	}
	s.published[blogID] = result
	return nil
}

func (s *fakeStore) RecentTopics(ctx context.Context, limit int) ([]types.Topic, error) {
	return nil, nil
}

type fakeGenerator struct {
	titles   []string
	titleErr error
	draft    *types.BlogDraft
	draftErr error

	topicCalls int
}

func (g *fakeGenerator) GenerateTopic(ctx context.Context, category, description, newsContext string, recentTitles []string) (string, error) {
	if g.titleErr != nil {
		return "", g.titleErr
	}
	i := g.topicCalls
	g.topicCalls++
	if i >= len(g.titles) {
		i = len(g.titles) - 1
	}
	return g.titles[i], nil
}

func (g *fakeGenerator) GenerateArticle(ctx context.Context, title, category, description string) (*types.BlogDraft, error) {
	if g.draftErr != nil {
		return nil, g.draftErr
	}
	return g.draft, nil
}

type fakePublisher struct {
	result *types.PublishResult
	err    error
}

func (p *fakePublisher) PublishPost(ctx context.Context, blog *types.Blog) (*types.PublishResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

type fakeCovers struct {
	url string
	err error
}

func (c *fakeCovers) UploadFromURL(ctx context.Context, sourceURL, slug string) (string, error) {
	return c.url, c.err
}

type fakeIndex struct {
	seen  map[string]bool
	added []string
}

func (i *fakeIndex) Seen(ctx context.Context, hash string) (bool, error) {
	return i.seen[hash], nil
}

func (i *fakeIndex) Add(ctx context.Context, hash string) error {
	i.added = append(i.added, hash)
	return nil
}

type fakeEmitter struct {
	events []events.Event
}

func (e *fakeEmitter) Emit(event events.Event) {
	e.events = append(e.events, event)
}

func (e *fakeEmitter) Close() error { return nil }

func (e *fakeEmitter) kinds() []string {
	kinds := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

type staticNews string

func (n staticNews) Context(ctx context.Context, category string) string {
	return string(n)
}

func newTestPipeline(st *fakeStore, gen *fakeGenerator, pub *fakePublisher) (*Pipeline, *fakeEmitter) {
	emitter := &fakeEmitter{}
	return &Pipeline{
		Store:     st,
		News:      staticNews("Recent headlines:\n- something\n"),
		Generator: gen,
		Publisher: pub,
		Engine:    uniqueness.NewEngine(uniqueness.Config{}),
		Emitter:   emitter,
	}, emitter
}

func TestRunOnce_PublishesFirstUniqueTopic(t *testing.T) {
	st := &fakeStore{
		category: &types.Category{ID: "cat-1", Name: "cloud"},
		history:  []uniqueness.HistoryEntry{{Title: "Kubernetes Cost Optimization"}},
	}
	gen := &fakeGenerator{
		titles: []string{"Serverless Cold Starts Explained"},
		draft: &types.BlogDraft{
			Title:     "Serverless Cold Starts Explained",
			Content:   "## Intro\nBody.",
			Tags:      []string{"serverless"},
			WordCount: 1200,
		},
	}
	pub := &fakePublisher{result: &types.PublishResult{PostID: "p1", URL: "https://blog.example/p1", Slug: "p1"}}
	pipeline, emitter := newTestPipeline(st, gen, pub)

	report, err := pipeline.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "cloud", report.Category)
	assert.Equal(t, 1, report.TopicAttempts)
	assert.Equal(t, "https://blog.example/p1", report.PostURL)

	require.Len(t, st.savedTopics, 1)
	assert.Equal(t, types.TopicStatusPending, st.savedTopics[0].Status)
	assert.NotEmpty(t, st.savedTopics[0].Hash)
	assert.Equal(t, []string{types.TopicStatusInProgress, types.TopicStatusCompleted}, st.statuses)

	require.Len(t, st.savedBlogs, 1)
	assert.Equal(t, "topic-1", st.savedBlogs[0].TopicID)
	assert.Equal(t, types.PublishResult{PostID: "p1", URL: "https://blog.example/p1", Slug: "p1"}, st.published["blog-1"])

	assert.Equal(t, []string{events.EventTopicAccepted, events.EventBlogGenerated, events.EventPublished}, emitter.kinds())
}

func TestRunOnce_RejectsNearDuplicateThenAccepts(t *testing.T) {
	st := &fakeStore{
		category: &types.Category{ID: "cat-1", Name: "security"},
		history:  []uniqueness.HistoryEntry{{Title: "Securing Cloud-Based AI Chatbots"}},
	}
	gen := &fakeGenerator{
		titles: []string{"Securing AI Chatbots in the Cloud", "Zero Trust for CI Pipelines"},
		draft:  &types.BlogDraft{Title: "Zero Trust for CI Pipelines", Content: "body", WordCount: 900},
	}
	pub := &fakePublisher{result: &types.PublishResult{PostID: "p1", URL: "https://blog.example/p1"}}
	pipeline, emitter := newTestPipeline(st, gen, pub)

	report, err := pipeline.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.TopicAttempts)
	require.Len(t, st.records, 2)
	assert.Equal(t, []string{"Securing AI Chatbots in the Cloud"}, st.records[0].Titles)

	require.NotEmpty(t, emitter.events)
	rejected := emitter.events[0]
	assert.Equal(t, events.EventTopicRejected, rejected.Kind)
	assert.GreaterOrEqual(t, rejected.Score, 0.70)
}

func TestRunOnce_AllDuplicatesExhaustAttempts(t *testing.T) {
	st := &fakeStore{
		category: &types.Category{ID: "cat-1", Name: "security"},
		history:  []uniqueness.HistoryEntry{{Title: "Securing Cloud-Based AI Chatbots"}},
	}
	gen := &fakeGenerator{titles: []string{"Securing Cloud-Based AI Chatbots"}}
	pipeline, _ := newTestPipeline(st, gen, &fakePublisher{})

	_, err := pipeline.RunOnce(context.Background())

	var noTopic *NoUniqueTopicError
	require.ErrorAs(t, err, &noTopic)
	assert.Equal(t, 5, noTopic.Attempts)
	assert.Equal(t, "security", noTopic.Category)
	assert.GreaterOrEqual(t, noTopic.BestScore, 0.70)
	assert.Empty(t, st.savedTopics)
	assert.Len(t, st.records, 5)
}

func TestRunOnce_NoCategories(t *testing.T) {
	st := &fakeStore{categoryErr: store.ErrNoCategories}
	pipeline, _ := newTestPipeline(st, &fakeGenerator{}, &fakePublisher{})

	_, err := pipeline.RunOnce(context.Background())

	assert.ErrorIs(t, err, store.ErrNoCategories)
}

func TestRunOnce_ArticleFailureMarksTopicFailed(t *testing.T) {
	st := &fakeStore{category: &types.Category{ID: "cat-1", Name: "cloud"}}
	gen := &fakeGenerator{
		titles:   []string{"Serverless Cold Starts Explained"},
		draftErr: errors.New("model returned garbage"),
	}
	pipeline, emitter := newTestPipeline(st, gen, &fakePublisher{})

	_, err := pipeline.RunOnce(context.Background())

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageGeneration, stageErr.Stage)
	assert.Equal(t, []string{types.TopicStatusInProgress, types.TopicStatusFailed}, st.statuses)
	assert.Contains(t, emitter.kinds(), events.EventRunFailed)
}

func TestRunOnce_PublishAuthFailureMarksTopicFailed(t *testing.T) {
	st := &fakeStore{category: &types.Category{ID: "cat-1", Name: "cloud"}}
	gen := &fakeGenerator{
		titles: []string{"Serverless Cold Starts Explained"},
		draft:  &types.BlogDraft{Title: "Serverless Cold Starts Explained", Content: "body"},
	}
	pub := &fakePublisher{err: &retry.HTTPError{StatusCode: http.StatusUnauthorized, Message: "invalid token"}}
	pipeline, _ := newTestPipeline(st, gen, pub)

	_, err := pipeline.RunOnce(context.Background())

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StagePublish, stageErr.Stage)

	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, []string{types.TopicStatusInProgress, types.TopicStatusFailed}, st.statuses)
	assert.Empty(t, st.published)
}

func TestRunOnce_CoverFailureDegradesToNoCover(t *testing.T) {
	st := &fakeStore{category: &types.Category{ID: "cat-1", Name: "cloud"}}
	gen := &fakeGenerator{
		titles: []string{"Serverless Cold Starts Explained"},
		draft:  &types.BlogDraft{Title: "Serverless Cold Starts Explained", Content: "body"},
	}
	pub := &fakePublisher{result: &types.PublishResult{PostID: "p1", URL: "https://blog.example/p1"}}
	pipeline, _ := newTestPipeline(st, gen, pub)
	pipeline.Covers = &fakeCovers{err: errors.New("bucket unreachable")}
	pipeline.CoverSourceURL = "https://images.example/cover.jpg"

	report, err := pipeline.RunOnce(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, report.PostURL)
	require.Len(t, st.savedBlogs, 1)
	assert.Empty(t, st.savedBlogs[0].CoverImageURL)
}

func TestRunOnce_CoverURLAttachedToBlog(t *testing.T) {
	st := &fakeStore{category: &types.Category{ID: "cat-1", Name: "cloud"}}
	gen := &fakeGenerator{
		titles: []string{"Serverless Cold Starts Explained"},
		draft:  &types.BlogDraft{Title: "Serverless Cold Starts Explained", Content: "body"},
	}
	pub := &fakePublisher{result: &types.PublishResult{PostID: "p1", URL: "https://blog.example/p1"}}
	pipeline, _ := newTestPipeline(st, gen, pub)
	pipeline.Covers = &fakeCovers{url: "https://cdn.example/covers/serverless.jpg"}
	pipeline.CoverSourceURL = "https://images.example/cover.jpg"

	_, err := pipeline.RunOnce(context.Background())

	require.NoError(t, err)
	require.Len(t, st.savedBlogs, 1)
	assert.Equal(t, "https://cdn.example/covers/serverless.jpg", st.savedBlogs[0].CoverImageURL)
}

func TestRunOnce_IndexFastPathSkipsScan(t *testing.T) {
	st := &fakeStore{category: &types.Category{ID: "cat-1", Name: "cloud"}}
	gen := &fakeGenerator{
		titles: []string{"Serverless Cold Starts Explained", "GitOps Rollback Strategies"},
		draft:  &types.BlogDraft{Title: "GitOps Rollback Strategies", Content: "body"},
	}
	pub := &fakePublisher{result: &types.PublishResult{PostID: "p1", URL: "https://blog.example/p1"}}
	pipeline, _ := newTestPipeline(st, gen, pub)
	index := &fakeIndex{seen: map[string]bool{
		uniqueness.TopicHash("Serverless Cold Starts Explained"): true,
	}}
	pipeline.Index = index

	report, err := pipeline.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.TopicAttempts)
	assert.Equal(t, "GitOps Rollback Strategies", report.Title)
	require.Len(t, index.added, 1)
	assert.Equal(t, uniqueness.TopicHash("GitOps Rollback Strategies"), index.added[0])
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "serverless-cold-starts-explained", slugify("Serverless Cold Starts Explained"))
	assert.Equal(t, "whats-new-in-go-1-24", slugify("What's New in Go 1.24?"))
	assert.Equal(t, "", slugify("!!!"))
}
