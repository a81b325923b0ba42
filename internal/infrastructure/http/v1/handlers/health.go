package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger checks a backing service; *postgres.Pool satisfies it.
type Pinger interface {
	Ready(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	*BaseHandler
	database     Pinger
	rulesVersion string
}

// NewHealthHandler creates a new health handler. database may be nil when
// snapshots are disabled.
func NewHealthHandler(base *BaseHandler, database Pinger, rulesVersion string) *HealthHandler {
	return &HealthHandler{BaseHandler: base, database: database, rulesVersion: rulesVersion}
}

// Live handles liveness probe.
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the directory is loaded and, when configured, the
// database answers.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	checks := map[string]string{}
	status := http.StatusOK

	if _, err := h.directory.Get(ctx); err != nil {
		checks["directory"] = "unhealthy: " + err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["directory"] = "healthy"
	}

	if h.database != nil {
		if err := h.database.Ready(ctx); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "healthy"
		}
	}

	result := "ok"
	if status != http.StatusOK {
		result = "error"
	}
	c.JSON(status, gin.H{"status": result, "checks": checks})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	store, ok := h.Store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"app":          "portraits",
		"rulesVersion": h.rulesVersion,
		"directory":    store.Stats(),
		"snapshots":    h.database != nil,
	})
}
