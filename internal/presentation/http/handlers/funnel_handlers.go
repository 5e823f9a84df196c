package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/funnel"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/pkg/config"
)

// FunnelHandlers serves the funnel definition the quiz UI renders.
type FunnelHandlers struct {
	cfg    *funnel.Config
	logger *logging.ChanneledLogger
}

// NewFunnelHandlers creates funnel handlers with injected dependencies
func NewFunnelHandlers(cfg *funnel.Config, logger *logging.ChanneledLogger) *FunnelHandlers {
	return &FunnelHandlers{cfg: cfg, logger: logger}
}

// HandleConfig processes GET /api/v1/funnel/config
func (h *FunnelHandlers) HandleConfig(c *gin.Context) {
	resp := *h.cfg
	if resp.CheckoutURL == "" {
		resp.CheckoutURL = config.CheckoutURL
	}
	if resp.BeaconEndpoint == "" {
		resp.BeaconEndpoint = config.BeaconEndpoint
	}
	c.JSON(http.StatusOK, resp)
}
