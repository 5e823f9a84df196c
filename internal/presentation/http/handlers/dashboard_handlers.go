package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/vitaflowapp/vitaflow-go/internal/application/services"
	"github.com/vitaflowapp/vitaflow-go/internal/domain/repositories"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/messaging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/performance"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/security"
	"github.com/vitaflowapp/vitaflow-go/pkg/config"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS already gates the dashboard origin; the upgrade itself carries
	// the admin token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DashboardHandlers holds dependencies for the operator dashboard API
type DashboardHandlers struct {
	dashboardService *services.DashboardService
	broadcaster      *messaging.LiveBroadcaster
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewDashboardHandlers creates dashboard handlers with injected dependencies
func NewDashboardHandlers(dashboardService *services.DashboardService, broadcaster *messaging.LiveBroadcaster, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DashboardHandlers {
	return &DashboardHandlers{
		dashboardService: dashboardService,
		broadcaster:      broadcaster,
		logger:           logger,
		perfTracker:      perfTracker,
	}
}

// HandleLogin processes POST /api/v1/dashboard/login
func (h *DashboardHandlers) HandleLogin(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
		return
	}

	if config.AdminPasswordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dashboard access not configured"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(config.AdminPasswordHash), []byte(req.Password)); err != nil {
		h.logger.Auth().Warn("Dashboard login rejected", "clientIp", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := security.GenerateAdminToken(config.JWTSecret, config.TokenLifetime)
	if err != nil {
		h.logger.Auth().Error("Failed to issue dashboard token", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	h.logger.Auth().Info("Dashboard login succeeded", "clientIp", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresIn": int(config.TokenLifetime.Seconds()),
	})
}

// HandleListEvents processes GET /api/v1/dashboard/events
func (h *DashboardHandlers) HandleListEvents(c *gin.Context) {
	marker := h.perfTracker.StartOperation("dashboard_list_events", "")
	defer marker.Complete()

	filter := repositories.EventFilter{
		SessionID: c.Query("sessionId"),
		EventType: c.Query("eventType"),
	}
	if since := c.Query("since"); since != "" {
		ts, err := strconv.ParseInt(since, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be epoch milliseconds"})
			return
		}
		filter.Since = ts
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		filter.Limit = n
	}

	events, err := h.dashboardService.ListEvents(filter)
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// HandleListSessions processes GET /api/v1/dashboard/sessions
func (h *DashboardHandlers) HandleListSessions(c *gin.Context) {
	marker := h.perfTracker.StartOperation("dashboard_list_sessions", "")
	defer marker.Complete()

	summaries, err := h.dashboardService.ListSessions()
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": summaries, "count": len(summaries)})
}

// HandleStats processes GET /api/v1/dashboard/stats
func (h *DashboardHandlers) HandleStats(c *gin.Context) {
	marker := h.perfTracker.StartOperation("dashboard_stats", "")
	defer marker.Complete()

	stats, err := h.dashboardService.Stats()
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HandleDeleteSession processes DELETE /api/v1/dashboard/sessions/:sessionId
func (h *DashboardHandlers) HandleDeleteSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId required"})
		return
	}

	deleted, err := h.dashboardService.DeleteSession(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete session"})
		return
	}

	h.logger.Dashboard().Info("Session data deleted", "sessionId", sessionID, "deleted", deleted)
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// HandlePerfStats processes GET /api/v1/dashboard/perf
func (h *DashboardHandlers) HandlePerfStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.perfTracker.GetOverallStats())
}

// HandleLiveFeed processes GET /api/v1/dashboard/live, upgrading the
// connection to a websocket that streams every tracked event.
func (h *DashboardHandlers) HandleLiveFeed(c *gin.Context) {
	conn, err := liveUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Live().Warn("Live feed upgrade failed", "error", err.Error())
		return
	}

	client := &messaging.LiveClient{
		Conn: conn,
		Send: make(chan []byte, 64),
	}
	h.broadcaster.Register(client)

	go h.broadcaster.WritePump(client)
	go h.broadcaster.ReadPump(client)
}
