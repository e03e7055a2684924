package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"blogbot/config"
	"blogbot/store"
	"blogbot/uniqueness"
)

// Handlers holds the dependencies behind the HTTP API.
type Handlers struct {
	Store  store.TopicStore
	Engine *uniqueness.Engine

	// Run triggers one pipeline cycle; wired to the orchestrator.
	Run func(ctx *gin.Context)
}

// RegisterTopicRoutes registers topic inspection endpoints.
func (h *Handlers) RegisterTopicRoutes(r *gin.Engine) {
	g := r.Group("/api/topics")
	g.GET("", h.handleListTopics)
	g.POST("/check", h.handleCheckTopic)
}

// CheckTopicRequest represents the request to score a candidate title
type CheckTopicRequest struct {
	Title string `json:"title" binding:"required"`
}

// CheckTopicResponse represents the response from a candidate check
type CheckTopicResponse struct {
	IsDuplicate     bool      `json:"is_duplicate"`
	SimilarityScore float64   `json:"similarity_score"`
	MatchedTitle    string    `json:"matched_title,omitempty"`
	Threshold       float64   `json:"threshold"`
	CheckedAt       time.Time `json:"checked_at"`
}

// handleListTopics lists persisted topics, newest first
// GET /api/topics?limit=20
func (h *Handlers) handleListTopics(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 200"})
			return
		}
		limit = parsed
	}

	topics, err := h.Store.RecentTopics(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics, "count": len(topics)})
}

// handleCheckTopic scores a candidate title against the lookback history
// POST /api/topics/check
func (h *Handlers) handleCheckTopic(c *gin.Context) {
	var req CheckTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cutoff := time.Now().Add(-config.HistoryLookback)
	history, err := h.Store.HistorySince(c.Request.Context(), cutoff)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	verdict := h.Engine.Evaluate(req.Title, history)
	resp := CheckTopicResponse{
		IsDuplicate:     verdict.IsDuplicate,
		SimilarityScore: verdict.Score,
		Threshold:       h.Engine.Threshold(),
		CheckedAt:       time.Now().UTC(),
	}
	if verdict.Matched != nil {
		resp.MatchedTitle = verdict.Matched.Title
	}
	c.JSON(http.StatusOK, resp)
}
