package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitaflowapp/vitaflow-go/internal/application/services"
	"github.com/vitaflowapp/vitaflow-go/internal/domain/events"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/performance"
)

// TrackHandlers holds dependencies for tracking endpoints
type TrackHandlers struct {
	trackingService *services.TrackingService
	sessionService  *services.SessionService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewTrackHandlers creates tracking handlers with injected dependencies
func NewTrackHandlers(trackingService *services.TrackingService, sessionService *services.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *TrackHandlers {
	return &TrackHandlers{
		trackingService: trackingService,
		sessionService:  sessionService,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// HandleTyped builds the handler for one lifecycle endpoint. The route
// decides the event type; the body never overrides it. Every accepted
// request answers 200 regardless of downstream sink outcomes.
func (h *TrackHandlers) HandleTyped(eventType events.EventType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.TrackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
		req.EventType = string(eventType)
		req.UserAgent = c.Request.UserAgent()
		req.SessionID = h.sessionService.Resolve(req.SessionID)

		h.trackingService.Track(req)
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// HandleBeacon processes POST /api/v1/track/beacon, the unload-safe path.
// The browser fires it during page teardown and never reads the response,
// so the handler replies 204 no matter what and does the minimum work.
func (h *TrackHandlers) HandleBeacon(c *gin.Context) {
	var req services.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusNoContent)
		return
	}
	req.UserAgent = c.Request.UserAgent()
	req.SessionID = h.sessionService.Resolve(req.SessionID)

	h.trackingService.TrackBeacon(req)
	c.Status(http.StatusNoContent)
}
