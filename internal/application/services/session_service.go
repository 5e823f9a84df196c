package services

import (
	"time"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/repositories"
	"github.com/vitaflowapp/vitaflow-go/internal/domain/session"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/caching/stores"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/security"
	"github.com/vitaflowapp/vitaflow-go/pkg/config"
)

// VisitRequest carries what the funnel sends when a page loads.
type VisitRequest struct {
	SessionID string `json:"sessionId"` // identifier the client already holds, if any
	EntryURL  string `json:"entryUrl"`
	Referrer  string `json:"referrer"`
	UserAgent string `json:"-"`
	ClientIP  string `json:"-"`
}

// VisitResponse is returned to the funnel immediately; identity upgrade
// and geo enrichment continue in the background.
type VisitResponse struct {
	SessionID string `json:"sessionId"`
	Created   bool   `json:"created"`
}

// SessionService owns the session lifecycle: immediate synthetic identity,
// background upgrade to the IP-derived identifier, and migration of local
// events recorded under the synthetic id.
type SessionService struct {
	sessions    *stores.SessionsStore
	geoService  *GeoService
	localEvents repositories.EventStore
	logger      *logging.ChanneledLogger
}

// NewSessionService creates a new session service.
func NewSessionService(sessions *stores.SessionsStore, geoService *GeoService, localEvents repositories.EventStore, logger *logging.ChanneledLogger) *SessionService {
	return &SessionService{
		sessions:    sessions,
		geoService:  geoService,
		localEvents: localEvents,
		logger:      logger,
	}
}

// HandleVisit resolves the presented identifier to a live session, creating
// one when necessary. The call never blocks on network resolution: a new
// session gets a synthetic id right away and the upgrade runs detached.
func (s *SessionService) HandleVisit(req VisitRequest) VisitResponse {
	if req.SessionID != "" {
		if data, ok := s.sessions.Get(req.SessionID); ok {
			s.sessions.Touch(req.SessionID)
			return VisitResponse{SessionID: data.SessionID}
		}
		if !session.IsSynthetic(req.SessionID) && !session.IsUpgraded(req.SessionID) {
			s.logger.Session().Warn("Malformed session id presented, reinitializing", "presented", req.SessionID)
		}
	}

	syntheticID := session.SyntheticID(time.Now().UTC(), security.GenerateSessionSuffix())
	s.sessions.Set(&stores.SessionData{
		SessionID:   syntheticID,
		SyntheticID: syntheticID,
		Attribution: session.ParseAttribution(req.EntryURL, req.Referrer),
		UserAgent:   req.UserAgent,
	})

	s.logger.Session().Info("Session created",
		"sessionId", syntheticID,
		"referrer", req.Referrer)

	go s.upgradeIdentity(syntheticID, req.ClientIP)

	return VisitResponse{SessionID: syntheticID, Created: true}
}

// Resolve maps any identifier the client holds to the session's current
// identifier. Unknown identifiers resolve to themselves so tracking keeps
// working for sessions that predate a process restart.
func (s *SessionService) Resolve(id string) string {
	if data, ok := s.sessions.Get(id); ok {
		s.sessions.Touch(id)
		return data.SessionID
	}
	return id
}

// upgradeIdentity resolves the visitor's public address and swaps the
// synthetic id for the stable IP-derived one. Local events written under
// the synthetic id are relabeled; remote rows are insert-only and keep
// whatever id they were emitted with.
func (s *SessionService) upgradeIdentity(syntheticID, clientIP string) {
	loc := s.geoService.ResolveWithTimeout(syntheticID, clientIP, config.GeoHTTPTimeout)
	if loc == nil || loc.IP == "" {
		return
	}

	upgradedID := session.UpgradedID(loc.IP)
	if !s.sessions.UpgradeID(syntheticID, upgradedID) {
		return
	}

	if _, err := s.localEvents.RewriteSessionID(syntheticID, upgradedID); err != nil {
		s.logger.Session().Warn("Event migration after identity upgrade failed",
			"from", syntheticID,
			"to", upgradedID,
			"error", err.Error())
	}
}

// StartCleanup launches the periodic expired-session sweep. The returned
// function stops it.
func (s *SessionService) StartCleanup(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				s.sessions.Cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

// Count reports the number of live sessions, for health reporting.
func (s *SessionService) Count() int {
	return s.sessions.Count()
}
