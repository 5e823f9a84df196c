// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"

	"github.com/vitaflowapp/vitaflow-go/internal/application/services"
	"github.com/vitaflowapp/vitaflow-go/internal/domain/funnel"
	"github.com/vitaflowapp/vitaflow-go/internal/domain/repositories"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/caching/stores"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/email"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/geoip"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/messaging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/performance"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/persistence/database"
	eventstore "github.com/vitaflowapp/vitaflow-go/internal/infrastructure/persistence/events"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/pixel"
	"github.com/vitaflowapp/vitaflow-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services (stateless singletons over shared infrastructure)
	SessionService   *services.SessionService
	TrackingService  *services.TrackingService
	GeoService       *services.GeoService
	DashboardService *services.DashboardService
	RouletteService  *services.RouletteService

	// Infrastructure dependencies
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
	Sessions    *stores.SessionsStore
	LocalDB     *database.DB
	RemoteDB    *database.DB // nil when no remote store is configured
	Broadcaster *messaging.LiveBroadcaster
	FunnelCfg   *funnel.Config
}

// NewContainer creates and wires all singleton services
func NewContainer(logger *logging.ChanneledLogger) (*Container, error) {
	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())

	localDB, err := database.NewLocalConnection(config.LocalDBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open local event store: %w", err)
	}
	if err := database.NewTableCreator().CreateSchema(localDB.DB); err != nil {
		return nil, fmt.Errorf("failed to create local schema: %w", err)
	}

	localEvents := eventstore.NewLocalStore(localDB, logger, config.MaxLocalEvents)

	var remoteDB *database.DB
	var remoteEvents *eventstore.RemoteStore
	if config.RemoteDBURL != "" {
		remoteDB, err = database.NewRemoteConnection(config.RemoteDBURL, config.RemoteDBAuthToken, logger)
		if err != nil {
			// The funnel must keep tracking locally even when the remote
			// store is unreachable at boot.
			logger.Startup().Warn("Remote event store unavailable, continuing local-only", "error", err.Error())
			remoteDB = nil
		} else if err := database.NewTableCreator().CreateSchema(remoteDB.DB); err != nil {
			// A reachable store we cannot create the ingestion table on is
			// as good as unreachable; every insert would fail.
			logger.Startup().Warn("Remote schema creation failed, continuing local-only", "error", err.Error())
			remoteDB.Close()
			remoteDB = nil
		} else {
			remoteEvents = eventstore.NewRemoteStore(remoteDB, logger)
		}
	}

	funnelCfg, err := loadFunnelConfig(logger)
	if err != nil {
		return nil, err
	}

	sessions := stores.NewSessionsStore(config.SessionTTL, logger)
	geoClient := geoip.NewClient(config.GeoPrimaryURL, config.GeoFallbackURL, config.GeoHTTPTimeout, logger)
	pixelClient := pixel.NewClient(config.PixelAPIBase, config.PixelID, config.PixelAccessToken, logger)
	emailService := email.NewService(config.ResendAPIKey, config.LeadAlertFrom, config.LeadAlertTo)
	broadcaster := messaging.NewLiveBroadcaster(logger)

	geoService := services.NewGeoService(geoClient, sessions, logger, perfTracker)
	sessionService := services.NewSessionService(sessions, geoService, localEvents, logger)

	// Typed-nil guard: only assign into the interface when a remote store
	// actually exists.
	var remote repositories.RemoteEventStore
	if remoteEvents != nil {
		remote = remoteEvents
	}

	trackingService := services.NewTrackingService(localEvents, remote, sessions, pixelClient, emailService, broadcaster, logger, perfTracker)
	dashboardService := services.NewDashboardService(localEvents, remote, sessions, logger)
	rouletteService := services.NewRouletteService(logger)

	return &Container{
		SessionService:   sessionService,
		TrackingService:  trackingService,
		GeoService:       geoService,
		DashboardService: dashboardService,
		RouletteService:  rouletteService,

		Logger:      logger,
		PerfTracker: perfTracker,
		Sessions:    sessions,
		LocalDB:     localDB,
		RemoteDB:    remoteDB,
		Broadcaster: broadcaster,
		FunnelCfg:   funnelCfg,
	}, nil
}

func loadFunnelConfig(logger *logging.ChanneledLogger) (*funnel.Config, error) {
	if config.FunnelConfigPath == "" {
		logger.Startup().Info("No funnel config path set, using built-in funnel")
		return funnel.DefaultConfig(), nil
	}
	cfg, err := funnel.LoadFromFile(config.FunnelConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load funnel config from %s: %w", config.FunnelConfigPath, err)
	}
	logger.Startup().Info("Funnel config loaded", "path", config.FunnelConfigPath, "blocks", len(cfg.Blocks))
	return cfg, nil
}

// Close releases the container's database connections.
func (c *Container) Close() error {
	var firstErr error
	if c.LocalDB != nil {
		if err := c.LocalDB.Close(); err != nil {
			firstErr = err
		}
	}
	if c.RemoteDB != nil {
		if err := c.RemoteDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
