package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	h.RegisterTopicRoutes(r)
	h.RegisterRunRoutes(r)
	RegisterHealthRoutes(r)
	return r
}
