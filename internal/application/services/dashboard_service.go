package services

import (
	"fmt"
	"sort"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/events"
	"github.com/vitaflowapp/vitaflow-go/internal/domain/repositories"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/caching/stores"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
)

// SessionSummary aggregates one session's recorded activity for the
// dashboard list view.
type SessionSummary struct {
	SessionID     string `json:"sessionId"`
	EventCount    int    `json:"eventCount"`
	MaxProgress   int    `json:"maxProgress"`
	VitalityScore *int   `json:"vitalityScore,omitempty"`
	Country       string `json:"country,omitempty"`
	City          string `json:"city,omitempty"`
	UTMSource     string `json:"utmSource,omitempty"`
	FirstSeen     int64  `json:"firstSeen"` // epoch milliseconds
	LastSeen      int64  `json:"lastSeen"`
	CheckedOut    bool   `json:"checkedOut"`
}

// FunnelStats is the dashboard overview payload.
type FunnelStats struct {
	TotalEvents    int            `json:"totalEvents"`
	TotalSessions  int            `json:"totalSessions"`
	LiveSessions   int            `json:"liveSessions"`
	CheckoutClicks int            `json:"checkoutClicks"`
	EventsByType   map[string]int `json:"eventsByType"`
	DropOffByBlock map[int]int    `json:"dropOffByBlock"`
}

// DashboardService serves the operator-facing read model over the local
// event log plus the live session cache.
type DashboardService struct {
	localEvents  repositories.EventStore
	remoteEvents repositories.RemoteEventStore
	sessions     *stores.SessionsStore
	logger       *logging.ChanneledLogger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(localEvents repositories.EventStore, remoteEvents repositories.RemoteEventStore, sessions *stores.SessionsStore, logger *logging.ChanneledLogger) *DashboardService {
	return &DashboardService{
		localEvents:  localEvents,
		remoteEvents: remoteEvents,
		sessions:     sessions,
		logger:       logger,
	}
}

// ListEvents returns stored events matching the filter, oldest first.
func (s *DashboardService) ListEvents(filter repositories.EventFilter) ([]*events.TrackingEvent, error) {
	return s.localEvents.List(filter)
}

// ListSessions aggregates the local log into per-session summaries, most
// recently active first.
func (s *DashboardService) ListSessions() ([]*SessionSummary, error) {
	all, err := s.localEvents.List(repositories.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load events for session summaries: %w", err)
	}

	byID := make(map[string]*SessionSummary)
	for _, event := range all {
		summary, ok := byID[event.SessionID]
		if !ok {
			summary = &SessionSummary{
				SessionID: event.SessionID,
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			byID[event.SessionID] = summary
		}

		summary.EventCount++
		if event.Timestamp < summary.FirstSeen {
			summary.FirstSeen = event.Timestamp
		}
		if event.Timestamp > summary.LastSeen {
			summary.LastSeen = event.Timestamp
		}
		if event.Progress > summary.MaxProgress {
			summary.MaxProgress = event.Progress
		}
		if event.VitalityScore != nil {
			summary.VitalityScore = event.VitalityScore
		}
		if event.EventType == events.EventCheckoutClick {
			summary.CheckedOut = true
		}
	}

	result := make([]*SessionSummary, 0, len(byID))
	for _, summary := range byID {
		if loc, attr, ok := s.sessions.Snapshot(summary.SessionID); ok {
			if loc != nil {
				summary.Country = loc.Country
				summary.City = loc.City
			}
			summary.UTMSource = attr.UTMSource
		}
		result = append(result, summary)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].LastSeen > result[j].LastSeen
	})
	return result, nil
}

// Stats computes the funnel overview from the local log.
func (s *DashboardService) Stats() (*FunnelStats, error) {
	all, err := s.localEvents.List(repositories.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load events for stats: %w", err)
	}

	stats := &FunnelStats{
		TotalEvents:    len(all),
		LiveSessions:   s.sessions.Count(),
		EventsByType:   make(map[string]int),
		DropOffByBlock: make(map[int]int),
	}

	seen := make(map[string]bool)
	lastBlock := make(map[string]int)
	for _, event := range all {
		stats.EventsByType[string(event.EventType)]++
		if !seen[event.SessionID] {
			seen[event.SessionID] = true
			stats.TotalSessions++
		}
		if event.EventType == events.EventCheckoutClick {
			stats.CheckoutClicks++
		}
		if event.BlockID > lastBlock[event.SessionID] {
			lastBlock[event.SessionID] = event.BlockID
		}
	}

	for _, block := range lastBlock {
		stats.DropOffByBlock[block]++
	}

	return stats, nil
}

// DeleteSession removes a session's data everywhere it can. The local
// delete decides the outcome; the remote delete is attempted independently
// and its failure only logged, since the remote store may be unreachable.
func (s *DashboardService) DeleteSession(sessionID string) (int64, error) {
	deleted, err := s.localEvents.DeleteBySessionID(sessionID)
	if err != nil {
		return 0, err
	}

	if s.remoteEvents != nil {
		if _, remoteErr := s.remoteEvents.DeleteBySessionID(sessionID); remoteErr != nil {
			s.logger.Dashboard().Warn("Remote session delete failed",
				"sessionId", sessionID,
				"error", remoteErr.Error())
		}
	}

	return deleted, nil
}
