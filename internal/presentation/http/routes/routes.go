// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/vitaflowapp/vitaflow-go/internal/application/container"
	"github.com/vitaflowapp/vitaflow-go/internal/domain/events"
	"github.com/vitaflowapp/vitaflow-go/internal/presentation/http/handlers"
	"github.com/vitaflowapp/vitaflow-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	sessionHandlers := handlers.NewSessionHandlers(container.SessionService, container.Logger, container.PerfTracker)
	trackHandlers := handlers.NewTrackHandlers(container.TrackingService, container.SessionService, container.Logger, container.PerfTracker)
	rouletteHandlers := handlers.NewRouletteHandlers(container.RouletteService, container.Logger, container.PerfTracker)
	dashboardHandlers := handlers.NewDashboardHandlers(container.DashboardService, container.Broadcaster, container.Logger, container.PerfTracker)
	funnelHandlers := handlers.NewFunnelHandlers(container.FunnelCfg, container.Logger)
	healthHandlers := handlers.NewHealthHandlers(container)

	api := r.Group("/api/v1")
	{
		api.GET("/health", healthHandlers.HandleHealth)
		api.GET("/funnel/config", funnelHandlers.HandleConfig)

		api.POST("/session/visit", sessionHandlers.HandleVisit)

		api.POST("/track/block-view", trackHandlers.HandleTyped(events.EventBlockView))
		api.POST("/track/answer-selected", trackHandlers.HandleTyped(events.EventAnswerSelected))
		api.POST("/track/block-completed", trackHandlers.HandleTyped(events.EventBlockCompleted))
		api.POST("/track/checkout-click", trackHandlers.HandleTyped(events.EventCheckoutClick))
		api.POST("/track/page-abandon", trackHandlers.HandleTyped(events.EventPageAbandon))
		api.POST("/track/beacon", trackHandlers.HandleBeacon)

		api.POST("/roulette/spin", rouletteHandlers.HandleSpin)

		api.POST("/dashboard/login", dashboardHandlers.HandleLogin)

		dashboard := api.Group("/dashboard")
		dashboard.Use(middleware.AdminAuthMiddleware())
		{
			dashboard.GET("/events", dashboardHandlers.HandleListEvents)
			dashboard.GET("/sessions", dashboardHandlers.HandleListSessions)
			dashboard.DELETE("/sessions/:sessionId", dashboardHandlers.HandleDeleteSession)
			dashboard.GET("/stats", dashboardHandlers.HandleStats)
			dashboard.GET("/perf", dashboardHandlers.HandlePerfStats)
			dashboard.GET("/live", dashboardHandlers.HandleLiveFeed)
		}
	}

	return r
}
