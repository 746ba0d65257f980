package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger checks storage connectivity. Nil for backends without a
// connection to verify (in-memory).
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	storage Pinger
	backend string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(storage Pinger, backend string) *HealthHandler {
	return &HealthHandler{storage: storage, backend: backend}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := map[string]string{
		"storage": "healthy (" + h.backend + ")",
	}

	if h.storage != nil {
		if err := h.storage.Ping(c.Request.Context()); err != nil {
			checks["storage"] = "unhealthy: " + err.Error()
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"checks": checks,
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": checks,
	})
}
