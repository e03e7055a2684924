package news

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"blogbot/config"
)

func TestResolveFeedURL(t *testing.T) {
	assert.Equal(t, FeedPresets["security"].URL, ResolveFeedURL("Security"))
	assert.Equal(t, FeedPresets["cloud"].URL, ResolveFeedURL(" cloud "))
	assert.Equal(t, FeedPresets[DefaultFeedPreset].URL, ResolveFeedURL("philately"))
}

func TestRenderContext(t *testing.T) {
	headlines := []Headline{
		{Title: "First headline", Excerpt: "Some detail."},
		{Title: "Second headline"},
	}

	out := renderContext(headlines)

	assert.True(t, strings.HasPrefix(out, "Recent headlines:\n"))
	assert.Contains(t, out, "- First headline\n  Some detail.\n")
	assert.Contains(t, out, "- Second headline\n")
}

func TestRenderContext_Empty(t *testing.T) {
	assert.Equal(t, "", renderContext(nil))
}

func TestEnrichFillsExcerpts(t *testing.T) {
	f := &Fetcher{extract: func(url string) (string, error) {
		if url == "https://example.com/b" {
			return "", fmt.Errorf("paywalled")
		}
		return "excerpt for " + url, nil
	}}
	headlines := []Headline{
		{Title: "A", URL: "https://example.com/a"},
		{Title: "B", URL: "https://example.com/b"},
		{Title: "C", URL: "https://example.com/c"},
	}

	f.enrich(headlines)

	assert.Equal(t, "excerpt for https://example.com/a", headlines[0].Excerpt)
	assert.Empty(t, headlines[1].Excerpt)
	assert.Equal(t, "excerpt for https://example.com/c", headlines[2].Excerpt)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde", truncate("abcdefgh", 5))
	// Multibyte runes are never split.
	assert.Equal(t, "héllo", truncate("héllo wörld", 5))
	long := strings.Repeat("x", config.MaxExcerptLength+50)
	assert.Len(t, truncate(long, config.MaxExcerptLength), config.MaxExcerptLength)
}
