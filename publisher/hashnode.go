// Package publisher posts finished articles to the Hashnode GraphQL API.
// Failures carry status codes (and Retry-After hints) as retry.HTTPError so
// the retry classifier can tell rate limits from bad credentials.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"blogbot/config"
	"blogbot/retry"
	"blogbot/types"
)

const publishMutation = `mutation PublishPost($input: PublishPostInput!) {
  publishPost(input: $input) {
    post { id url slug }
  }
}`

// Hashnode publishes posts to a single publication.
type Hashnode struct {
	endpoint      string
	token         string
	publicationID string
	httpClient    *http.Client
}

// NewHashnode creates a publisher for the given publication.
func NewHashnode(token, publicationID string) *Hashnode {
	return &Hashnode{
		endpoint:      config.HashnodeEndpoint,
		token:         token,
		publicationID: publicationID,
		httpClient:    &http.Client{Timeout: config.PublishTimeout},
	}
}

// PublishPost publishes one article and returns the platform reference.
// One call is one attempt; the caller owns the retry policy.
func (h *Hashnode) PublishPost(ctx context.Context, blog *types.Blog) (*types.PublishResult, error) {
	input := map[string]interface{}{
		"publicationId":   h.publicationID,
		"title":           blog.Title,
		"contentMarkdown": blog.Content,
	}
	if blog.MetaDescription != "" {
		input["metaTags"] = map[string]interface{}{"description": blog.MetaDescription}
	}
	if blog.CoverImageURL != "" {
		input["coverImageOptions"] = map[string]interface{}{"coverImageURL": blog.CoverImageURL}
	}
	if len(blog.Tags) > 0 {
		tags := make([]map[string]interface{}, 0, len(blog.Tags))
		for _, t := range blog.Tags {
			tags = append(tags, map[string]interface{}{"name": t, "slug": t})
		}
		input["tags"] = tags
	}

	payload, err := json.Marshal(map[string]interface{}{
		"query":     publishMutation,
		"variables": map[string]interface{}{"input": input},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode publish payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", h.token)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publish request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read publish response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    truncateBody(body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var decoded struct {
		Data struct {
			PublishPost struct {
				Post struct {
					ID   string `json:"id"`
					URL  string `json:"url"`
					Slug string `json:"slug"`
				} `json:"post"`
			} `json:"publishPost"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode publish response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		// GraphQL-level errors arrive with HTTP 200; treat them as
		// malformed-request failures, not transient ones.
		return nil, &retry.HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    decoded.Errors[0].Message,
		}
	}
	if decoded.Data.PublishPost.Post.ID == "" {
		return nil, fmt.Errorf("publish response has no post id")
	}

	return &types.PublishResult{
		PostID: decoded.Data.PublishPost.Post.ID,
		URL:    decoded.Data.PublishPost.Post.URL,
		Slug:   decoded.Data.PublishPost.Post.Slug,
	}, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func truncateBody(body []byte) string {
	const max = 300
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
