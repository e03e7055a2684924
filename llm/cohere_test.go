package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/cohere-ai/cohere-go/v2/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogbot/retry"
)

func TestAsHTTPError_TransientStatusIsRetryable(t *testing.T) {
	err := asHTTPError(core.NewAPIError(http.StatusServiceUnavailable, errors.New("upstream overloaded")))

	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.True(t, retry.IsRetryable(err))

	assert.True(t, retry.IsRetryable(asHTTPError(core.NewAPIError(http.StatusTooManyRequests, errors.New("rate limited")))))
}

func TestAsHTTPError_AuthFailureStaysFatal(t *testing.T) {
	err := asHTTPError(core.NewAPIError(http.StatusUnauthorized, errors.New("invalid api token")))

	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.False(t, retry.IsRetryable(err))
}

func TestAsHTTPError_PassthroughWithoutStatus(t *testing.T) {
	plain := errors.New("connection broke mid-stream")
	assert.Same(t, plain, asHTTPError(plain))
}

func TestTransientChatFailureRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	// Zero-delay schedule keeps the test fast; classification is what matters.
	policy := retry.Policy{MaxAttempts: 3}

	result, err := retry.Do(context.Background(), policy, func(ctx context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", asHTTPError(core.NewAPIError(http.StatusServiceUnavailable, errors.New("upstream overloaded")))
		}
		return "Serverless Cold Starts Explained", nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "Serverless Cold Starts Explained", result)
}

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Serverless Cold Starts Explained", "Serverless Cold Starts Explained"},
		{"quoted", `"Serverless Cold Starts Explained"`, "Serverless Cold Starts Explained"},
		{"numbered list", "1. Serverless Cold Starts Explained", "Serverless Cold Starts Explained"},
		{"bullet", "- Serverless Cold Starts Explained", "Serverless Cold Starts Explained"},
		{"trailing explanation", "Serverless Cold Starts\nHere is why this topic works...", "Serverless Cold Starts"},
		{"whitespace", "  Serverless Cold Starts  ", "Serverless Cold Starts"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cleanTitle(tc.in))
		})
	}
}

func TestParseDraft(t *testing.T) {
	raw := `{"title":"T","content":"## Body","meta_description":"d","tags":["go"],"word_count":1200}`

	draft, err := parseDraft(raw)

	require.NoError(t, err)
	assert.Equal(t, "T", draft.Title)
	assert.Equal(t, "## Body", draft.Content)
	assert.Equal(t, []string{"go"}, draft.Tags)
	assert.Equal(t, 1200, draft.WordCount)
}

func TestParseDraft_CodeFence(t *testing.T) {
	raw := "```json\n{\"title\":\"T\",\"content\":\"body\"}\n```"

	draft, err := parseDraft(raw)

	require.NoError(t, err)
	assert.Equal(t, "body", draft.Content)
}

func TestParseDraft_Invalid(t *testing.T) {
	_, err := parseDraft("not json at all")
	assert.Error(t, err)

	_, err = parseDraft(`{"title":"T"}`)
	assert.Error(t, err)
}
