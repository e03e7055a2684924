package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRunRoutes registers the manual pipeline trigger.
func (h *Handlers) RegisterRunRoutes(r *gin.Engine) {
	r.POST("/api/run", func(c *gin.Context) {
		if h.Run == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline runner not configured"})
			return
		}
		h.Run(c)
	})
}
