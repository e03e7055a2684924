// Package news builds the trending-news context handed to the model when it
// proposes topics: recent headlines for the category's feed, enriched with
// short readability excerpts.
package news

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"blogbot/config"
)

// FeedConfig represents the configuration for a single RSS feed
type FeedConfig struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FeedPresets maps category names to feed configurations. Unknown categories
// fall back to the default preset.
var FeedPresets = map[string]FeedConfig{
	"technology": {
		Name: "Technology Review",
		URL:  "https://www.technologyreview.com/feed/",
	},
	"programming": {
		Name: "Hacker News",
		URL:  "https://hnrss.org/newest",
	},
	"security": {
		Name: "The Hacker News",
		URL:  "https://feeds.feedburner.com/TheHackersNews",
	},
	"cloud": {
		Name: "InfoQ Cloud",
		URL:  "https://feed.infoq.com/cloud-computing/",
	},
}

// DefaultFeedPreset is used when a category has no dedicated feed.
const DefaultFeedPreset = "technology"

// Headline is one feed item considered for the news context.
type Headline struct {
	Title       string
	URL         string
	PublishedAt time.Time
	Excerpt     string
}

// Fetcher retrieves and enriches headlines for a category.
type Fetcher struct {
	parser *gofeed.Parser
	// extract is swappable in tests; defaults to readability extraction.
	extract func(url string) (string, error)
}

// NewFetcher creates a headline fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		parser:  gofeed.NewParser(),
		extract: extractExcerpt,
	}
}

// ResolveFeedURL maps a category name to its feed URL.
func ResolveFeedURL(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if preset, ok := FeedPresets[key]; ok {
		return preset.URL
	}
	return FeedPresets[DefaultFeedPreset].URL
}

// Context fetches headlines for the category and renders them as a prompt
// fragment. A failed feed fetch degrades to an empty context rather than
// failing the run; topic generation works without news, just less topical.
func (f *Fetcher) Context(ctx context.Context, category string) string {
	headlines, err := f.Headlines(ctx, category, config.MaxHeadlines)
	if err != nil {
		log.Printf("news: feed fetch failed for category %q: %v", category, err)
		return ""
	}
	return renderContext(headlines)
}

// Headlines fetches up to limit items from the category's feed and enriches
// them with excerpts using a small worker pool.
func (f *Fetcher) Headlines(ctx context.Context, category string, limit int) ([]Headline, error) {
	feedURL := ResolveFeedURL(category)
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", feedURL, err)
	}

	count := len(feed.Items)
	if count > limit {
		count = limit
	}
	headlines := make([]Headline, 0, count)
	for i := 0; i < count; i++ {
		item := feed.Items[i]
		h := Headline{Title: item.Title, URL: item.Link}
		if item.PublishedParsed != nil {
			h.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			h.PublishedAt = *item.UpdatedParsed
		}
		headlines = append(headlines, h)
	}

	f.enrich(headlines)
	return headlines, nil
}

// enrich fills excerpts concurrently; extraction failures leave the headline
// title-only.
func (f *Fetcher) enrich(headlines []Headline) {
	var wg sync.WaitGroup
	jobs := make(chan int, len(headlines))

	for w := 0; w < config.ExcerptWorkers; w++ {
		go func() {
			for i := range jobs {
				excerpt, err := f.extract(headlines[i].URL)
				if err != nil {
					log.Printf("news: excerpt extraction failed for %s: %v", headlines[i].URL, err)
				} else {
					headlines[i].Excerpt = excerpt
				}
				wg.Done()
			}
		}()
	}

	for i := range headlines {
		wg.Add(1)
		jobs <- i
	}
	wg.Wait()
	close(jobs)
}

func extractExcerpt(url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("headline URL is empty")
	}
	article, err := readability.FromURL(url, config.ExcerptTimeout)
	if err != nil {
		return "", fmt.Errorf("readability extraction failed: %w", err)
	}
	return truncate(strings.TrimSpace(article.TextContent), config.MaxExcerptLength), nil
}

func renderContext(headlines []Headline) string {
	if len(headlines) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Recent headlines:\n")
	for _, h := range headlines {
		b.WriteString("- ")
		b.WriteString(h.Title)
		b.WriteString("\n")
		if h.Excerpt != "" {
			b.WriteString("  ")
			b.WriteString(h.Excerpt)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
