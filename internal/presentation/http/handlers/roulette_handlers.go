package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitaflowapp/vitaflow-go/internal/application/services"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/performance"
)

// RouletteHandlers holds dependencies for the wheel endpoint
type RouletteHandlers struct {
	rouletteService *services.RouletteService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewRouletteHandlers creates roulette handlers with injected dependencies
func NewRouletteHandlers(rouletteService *services.RouletteService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *RouletteHandlers {
	return &RouletteHandlers{
		rouletteService: rouletteService,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// HandleSpin processes POST /api/v1/roulette/spin
func (h *RouletteHandlers) HandleSpin(c *gin.Context) {
	var req services.SpinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.Attempt < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "attempt must be at least 1"})
		return
	}

	c.JSON(http.StatusOK, h.rouletteService.Spin(req))
}
