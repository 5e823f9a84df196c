// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/session"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
)

// SessionData is the cached state of one browsing visit.
type SessionData struct {
	SessionID   string // current identifier, synthetic until upgraded
	SyntheticID string
	Upgraded    bool

	// GeoResolved flips once resolution has finished, successfully or not.
	// A nil Location after GeoResolved means the session permanently
	// operates without geo enrichment.
	Location    *session.GeoLocation
	GeoResolved bool

	Attribution session.Attribution
	UserAgent   string

	CreatedAt    time.Time
	LastActivity time.Time
	ExpiresAt    time.Time
}

// SessionsStore holds per-session state in memory. It is the single shared
// mutable resource of the tracking pipeline; the identity upgrade is an
// atomic swap under its lock, with the stale synthetic id kept as an alias
// so in-flight clients still resolve to the same session.
type SessionsStore struct {
	sessions map[string]*SessionData
	aliases  map[string]string // synthetic id -> upgraded id after a swap
	ttl      time.Duration
	mu       sync.RWMutex
	logger   *logging.ChanneledLogger
}

// NewSessionsStore creates a new sessions cache store
func NewSessionsStore(ttl time.Duration, logger *logging.ChanneledLogger) *SessionsStore {
	if logger != nil {
		logger.Session().Info("Initializing sessions cache store", "ttl", ttl)
	}
	return &SessionsStore{
		sessions: make(map[string]*SessionData),
		aliases:  make(map[string]string),
		ttl:      ttl,
		logger:   logger,
	}
}

// Set stores session data keyed by its current identifier.
func (ss *SessionsStore) Set(data *SessionData) {
	now := time.Now().UTC()
	if data.CreatedAt.IsZero() {
		data.CreatedAt = now
	}
	data.LastActivity = now
	data.ExpiresAt = now.Add(ss.ttl)

	ss.mu.Lock()
	ss.sessions[data.SessionID] = data
	ss.mu.Unlock()
}

// Get retrieves session data by any identifier the client may hold,
// following the synthetic-to-upgraded alias when necessary. The returned
// struct is a detached copy taken under the lock: readers never observe a
// half-applied upgrade, and all mutation goes through the store's methods.
// The Location pointer is shared but set once and never written after.
func (ss *SessionsStore) Get(id string) (*SessionData, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	data, ok := ss.lookupLocked(id)
	if !ok {
		return nil, false
	}
	snapshot := *data
	return &snapshot, true
}

func (ss *SessionsStore) lookupLocked(id string) (*SessionData, bool) {
	if data, exists := ss.sessions[id]; exists {
		return data, true
	}
	if upgraded, exists := ss.aliases[id]; exists {
		data, ok := ss.sessions[upgraded]
		return data, ok
	}
	return nil, false
}

// Touch refreshes a session's activity window.
func (ss *SessionsStore) Touch(id string) {
	now := time.Now().UTC()
	ss.mu.Lock()
	if data, ok := ss.lookupLocked(id); ok {
		data.LastActivity = now
		data.ExpiresAt = now.Add(ss.ttl)
	}
	ss.mu.Unlock()
}

// UpgradeID swaps a session's synthetic identifier for its IP-derived one.
// The swap happens at most once per session and is atomic: concurrent
// readers observe either the synthetic id or the upgraded id, never a
// half-applied state. Returns false when the session is unknown or already
// upgraded.
func (ss *SessionsStore) UpgradeID(syntheticID, upgradedID string) bool {
	if syntheticID == upgradedID || upgradedID == "" {
		return false
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	data, exists := ss.sessions[syntheticID]
	if !exists || data.Upgraded {
		return false
	}

	delete(ss.sessions, syntheticID)
	data.SessionID = upgradedID
	data.Upgraded = true
	ss.sessions[upgradedID] = data
	ss.aliases[syntheticID] = upgradedID

	if ss.logger != nil {
		ss.logger.Session().Info("Session identity upgraded", "from", syntheticID, "to", upgradedID)
	}
	return true
}

// SetLocation records the outcome of geo resolution for a session. A nil
// location marks the session as resolved-without-geo.
func (ss *SessionsStore) SetLocation(id string, loc *session.GeoLocation) {
	ss.mu.Lock()
	if data, ok := ss.lookupLocked(id); ok {
		data.Location = loc
		data.GeoResolved = true
	}
	ss.mu.Unlock()
}

// Snapshot returns the geo/attribution enrichment for a session.
func (ss *SessionsStore) Snapshot(id string) (*session.GeoLocation, session.Attribution, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	data, ok := ss.lookupLocked(id)
	if !ok {
		return nil, session.Attribution{}, false
	}
	return data.Location, data.Attribution, true
}

// Count returns the number of live sessions.
func (ss *SessionsStore) Count() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

// Cleanup drops expired sessions and their aliases. Run periodically.
func (ss *SessionsStore) Cleanup() int {
	now := time.Now().UTC()

	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for id, data := range ss.sessions {
		if data.ExpiresAt.Before(now) {
			delete(ss.sessions, id)
			if data.SyntheticID != "" && data.SyntheticID != id {
				delete(ss.aliases, data.SyntheticID)
			}
			removed++
		}
	}

	if removed > 0 && ss.logger != nil {
		ss.logger.Session().Debug("Expired sessions removed", "removed", removed, "remaining", len(ss.sessions))
	}
	return removed
}
