package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitaflowapp/vitaflow-go/internal/application/container"
)

// HealthHandlers reports process liveness and store reachability.
type HealthHandlers struct {
	container *container.Container
}

// NewHealthHandlers creates health handlers
func NewHealthHandlers(container *container.Container) *HealthHandlers {
	return &HealthHandlers{container: container}
}

// HandleHealth processes GET /api/v1/health
func (h *HealthHandlers) HandleHealth(c *gin.Context) {
	status := gin.H{
		"status":       "ok",
		"liveSessions": h.container.Sessions.Count(),
		"liveClients":  h.container.Broadcaster.ClientCount(),
		"remoteStore":  h.container.RemoteDB != nil,
	}

	if err := h.container.LocalDB.Ping(); err != nil {
		status["status"] = "degraded"
		status["localStore"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}

	c.JSON(http.StatusOK, status)
}
