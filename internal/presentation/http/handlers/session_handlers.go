// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitaflowapp/vitaflow-go/internal/application/services"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/performance"
)

// SessionHandlers holds dependencies for session endpoints
type SessionHandlers struct {
	sessionService *services.SessionService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewSessionHandlers creates session handlers with injected dependencies
func NewSessionHandlers(sessionService *services.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SessionHandlers {
	return &SessionHandlers{
		sessionService: sessionService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// HandleVisit processes POST /api/v1/session/visit. It always succeeds:
// the caller either keeps its known session or gets a fresh synthetic id,
// and identity upgrade continues in the background.
func (h *SessionHandlers) HandleVisit(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_visit", "")
	defer marker.Complete()

	var req services.VisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An empty or malformed body still gets a session; the funnel
		// must never be blocked by its own tracking bootstrap.
		req = services.VisitRequest{}
	}
	req.UserAgent = c.Request.UserAgent()
	req.ClientIP = c.ClientIP()
	if req.Referrer == "" {
		req.Referrer = c.Request.Referer()
	}

	resp := h.sessionService.HandleVisit(req)
	marker.AddMetadata("sessionId", resp.SessionID)

	c.JSON(http.StatusOK, resp)
}
