package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopledger/internal/infrastructure/storage/postgres"
)

// Version is reported by /health/info.
var Version = "dev"

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	// pool is nil with the in-memory store
	pool *postgres.Pool
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pool *postgres.Pool) *HealthHandler {
	return &HealthHandler{pool: pool}
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
	if h.pool == nil {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"checks": map[string]string{"storage": "memory"},
		})
		return
	}

	if err := h.ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{
		"app":     "shopledger",
		"version": Version,
		"storage": "memory",
	}
	if h.pool != nil {
		info["storage"] = "postgres"
		info["database"] = h.pool.Stats()
	}
	c.JSON(http.StatusOK, info)
}

func (h *HealthHandler) ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}
