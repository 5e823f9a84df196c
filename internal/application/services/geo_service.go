package services

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/session"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/caching/stores"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/performance"
)

// GeoResolver resolves a visitor's public IP and coarse location.
type GeoResolver interface {
	Resolve(ctx context.Context, clientIP string) (*session.GeoLocation, error)
}

// GeoService resolves geolocation at most once per session. Concurrent
// requests for the same session collapse onto a single provider call, and
// a failed resolution is recorded as final: the session operates without
// geo enrichment and is never retried.
type GeoService struct {
	resolver GeoResolver
	sessions *stores.SessionsStore
	group    singleflight.Group
	logger   *logging.ChanneledLogger
	perf     *performance.Tracker
}

// NewGeoService creates a new geo service.
func NewGeoService(resolver GeoResolver, sessions *stores.SessionsStore, logger *logging.ChanneledLogger, perf *performance.Tracker) *GeoService {
	return &GeoService{
		resolver: resolver,
		sessions: sessions,
		logger:   logger,
		perf:     perf,
	}
}

// EnsureResolved resolves and caches the session's location if that has not
// happened yet. It returns the session's location, which is nil both while
// resolution is pending elsewhere and when resolution permanently failed.
func (s *GeoService) EnsureResolved(ctx context.Context, sessionID, clientIP string) *session.GeoLocation {
	data, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil
	}
	if data.GeoResolved {
		return data.Location
	}

	result, _, _ := s.group.Do(sessionID, func() (any, error) {
		// Re-check under the flight: another caller may have finished
		// between the lookup above and entering the group.
		if cached, cachedOK := s.sessions.Get(sessionID); cachedOK && cached.GeoResolved {
			return cached.Location, nil
		}

		marker := s.perf.StartOperation("geo_resolve", sessionID)
		defer marker.Complete()

		loc, err := s.resolver.Resolve(ctx, clientIP)
		if err != nil {
			marker.SetError(err)
			s.logger.Geo().Warn("Geo resolution failed, session continues without enrichment",
				"sessionId", sessionID,
				"error", err.Error())
			s.sessions.SetLocation(sessionID, nil)
			return (*session.GeoLocation)(nil), nil
		}

		s.logger.Geo().Info("Geo resolved for session",
			"sessionId", sessionID,
			"country", loc.Country,
			"city", loc.City)
		s.sessions.SetLocation(sessionID, loc)
		return loc, nil
	})

	loc, _ := result.(*session.GeoLocation)
	return loc
}

// ResolveWithTimeout runs EnsureResolved under its own deadline, detached
// from any request context. Used by the background upgrade path.
func (s *GeoService) ResolveWithTimeout(sessionID, clientIP string, timeout time.Duration) *session.GeoLocation {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.EnsureResolved(ctx, sessionID, clientIP)
}
