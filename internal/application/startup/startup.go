// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vitaflowapp/vitaflow-go/internal/application/container"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/presentation/http/server"
	"github.com/vitaflowapp/vitaflow-go/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until
// shutdown.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	log.Println("VitaFlow tracking engine starting...")

	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	logger.Startup().Info("Initializing dependency injection container...")
	appContainer, err := container.NewContainer(logger)
	if err != nil {
		return fmt.Errorf("container initialization failed: %w", err)
	}
	logger.Startup().Info("Container initialization complete",
		"remoteStore", appContainer.RemoteDB != nil,
		"funnelBlocks", len(appContainer.FunnelCfg.Blocks))

	// Background workers: live feed hub and expired-session sweep.
	go appContainer.Broadcaster.Run()
	stopCleanup := appContainer.SessionService.StartCleanup(config.SessionCleanupInterval)
	logger.Startup().Info("Background workers started",
		"sessionCleanupInterval", config.SessionCleanupInterval)

	logger.Startup().Info("Starting HTTP server...")
	httpServer := server.New(config.Port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("HTTP server listening", "address", ":"+config.Port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()
	stopCleanup()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Closing data stores...")
	if err := appContainer.Close(); err != nil {
		logger.Shutdown().Error("Error closing data stores", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
