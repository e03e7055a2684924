package llm

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/core"

	"blogbot/retry"
	"blogbot/types"
)

const (
	requestTimeout    = 120 * time.Second
	maxRecentInPrompt = 20
)

const topicPreamble = "You are an editor for a technology blog. " +
	"Propose exactly one article topic title. Respond with the title only, no quotes, no numbering."

const articlePreamble = "You are a technology writer. " +
	"Respond with a single JSON object and nothing else, using the keys " +
	`"title", "content" (markdown), "meta_description", "tags" (array of strings), "word_count" (integer).`

// Cohere implements Generator on the Cohere chat API.
type Cohere struct {
	client *cohereclient.Client
	model  string
}

// NewCohere creates a generator. The HTTP client forces HTTP/1.1 to avoid
// HTTP/2 protocol errors seen against the Cohere endpoint.
func NewCohere(apiKey, model string) *Cohere {
	httpClient := &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &Cohere{client: client, model: model}
}

// GenerateTopic proposes one topic title for the category.
func (c *Cohere) GenerateTopic(ctx context.Context, category, description, newsContext string, recentTitles []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n", category)
	if description != "" {
		fmt.Fprintf(&b, "Category description: %s\n", description)
	}
	if newsContext != "" {
		b.WriteString("\n")
		b.WriteString(newsContext)
	}
	if len(recentTitles) > 0 {
		titles := recentTitles
		if len(titles) > maxRecentInPrompt {
			titles = titles[:maxRecentInPrompt]
		}
		b.WriteString("\nAvoid topics similar to these recent titles:\n")
		for _, title := range titles {
			fmt.Fprintf(&b, "- %s\n", title)
		}
	}
	b.WriteString("\nPropose one fresh article topic title.")

	text, err := c.chat(ctx, topicPreamble, b.String())
	if err != nil {
		return "", fmt.Errorf("topic generation failed: %w", err)
	}

	title := cleanTitle(text)
	if title == "" {
		return "", fmt.Errorf("model returned an empty topic")
	}
	return title, nil
}

// GenerateArticle writes a complete draft for an accepted topic.
func (c *Cohere) GenerateArticle(ctx context.Context, title, category, description string) (*types.BlogDraft, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a long-form blog article titled %q for the %s category.\n", title, category)
	if description != "" {
		fmt.Fprintf(&b, "Category description: %s\n", description)
	}
	b.WriteString("Aim for 1200-1800 words of markdown with section headings.")

	text, err := c.chat(ctx, articlePreamble, b.String())
	if err != nil {
		return nil, fmt.Errorf("article generation failed: %w", err)
	}

	draft, err := parseDraft(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse article response: %w", err)
	}
	if draft.Title == "" {
		draft.Title = title
	}
	if draft.WordCount == 0 {
		draft.WordCount = len(strings.Fields(draft.Content))
	}
	return draft, nil
}

func (c *Cohere) chat(ctx context.Context, preamble, message string) (string, error) {
	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message:  message,
		Model:    cohere.String(c.model),
		Preamble: cohere.String(preamble),
	})
	if err != nil {
		return "", asHTTPError(err)
	}
	return resp.Text, nil
}

// asHTTPError maps SDK failures carrying an API status code to
// retry.HTTPError so the retry classifier can tell a transient 503/429 from
// bad credentials. Other failures pass through unchanged.
func asHTTPError(err error) error {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
		return &retry.HTTPError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
	}
	return err
}

// cleanTitle strips quoting and list markers the model sometimes adds.
func cleanTitle(text string) string {
	title := strings.TrimSpace(text)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	title = strings.TrimLeft(title, "-*0123456789. ")
	title = strings.Trim(title, `"'`)
	return strings.TrimSpace(title)
}

// parseDraft decodes the JSON body, tolerating markdown code fences.
func parseDraft(text string) (*types.BlogDraft, error) {
	body := strings.TrimSpace(text)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		if i := strings.LastIndex(body, "```"); i >= 0 {
			body = body[:i]
		}
		body = strings.TrimSpace(body)
	}

	var draft types.BlogDraft
	if err := json.Unmarshal([]byte(body), &draft); err != nil {
		return nil, err
	}
	if draft.Content == "" {
		return nil, fmt.Errorf("draft has no content")
	}
	return &draft, nil
}
