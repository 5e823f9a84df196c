// Package performance provides performance tracking for VitaFlow operations
// with lightweight per-operation markers and aggregate stats.
package performance

import (
	"fmt"
	"sync"
	"time"
)

// Marker represents a single performance measurement for an operation
type Marker struct {
	Operation string         `json:"operation"` // e.g., "track:block_view", "geo:resolve"
	SessionID string         `json:"sessionId,omitempty"`
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Duration  time.Duration  `json:"duration"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Completed bool           `json:"completed"`
}

// Complete marks the operation as finished and freezes its duration.
func (m *Marker) Complete() {
	if m.Completed {
		return
	}
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true
}

// SetError records an error message and marks the operation as failed
func (m *Marker) SetError(err error) {
	if err != nil {
		m.Error = err.Error()
		m.Success = false
	}
}

// AddMetadata adds key-value metadata to the marker
func (m *Marker) AddMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxMarkers    int           `json:"maxMarkers"`
	SlowThreshold time.Duration `json:"slowThreshold"`
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers:    10000,
		SlowThreshold: 500 * time.Millisecond,
	}
}

// Tracker manages performance markers and provides metrics aggregation
type Tracker struct {
	markers map[string]*Marker
	config  *TrackerConfig
	mu      sync.RWMutex
	started time.Time
	counter uint64
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	return &Tracker{
		markers: make(map[string]*Marker),
		config:  config,
		started: time.Now(),
	}
}

// StartOperation begins tracking a new operation and returns its marker
func (t *Tracker) StartOperation(operation, sessionID string) *Marker {
	marker := &Marker{
		Operation: operation,
		SessionID: sessionID,
		StartTime: time.Now(),
		Success:   true,
	}

	t.mu.Lock()
	t.counter++
	id := fmt.Sprintf("%s:%d:%d", operation, marker.StartTime.UnixNano(), t.counter)
	t.markers[id] = marker
	if len(t.markers) > t.config.MaxMarkers {
		t.evictOldestLocked()
	}
	t.mu.Unlock()

	return marker
}

// GetRecentMetrics returns completed markers within the given window.
func (t *Tracker) GetRecentMetrics(within time.Duration) []Marker {
	cutoff := time.Now().Add(-within)

	t.mu.RLock()
	defer t.mu.RUnlock()

	var recent []Marker
	for _, m := range t.markers {
		if m.Completed && m.EndTime.After(cutoff) {
			recent = append(recent, *m)
		}
	}
	return recent
}

// GetOverallStats returns aggregate counters for diagnostics endpoints.
func (t *Tracker) GetOverallStats() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var completed, active, failed, slow int
	for _, m := range t.markers {
		if !m.Completed {
			active++
			continue
		}
		completed++
		if !m.Success {
			failed++
		}
		if m.Duration > t.config.SlowThreshold {
			slow++
		}
	}

	return map[string]any{
		"uptime":              time.Since(t.started).String(),
		"activeOperations":    active,
		"completedOperations": completed,
		"failedOperations":    failed,
		"slowOperations":      slow,
	}
}

// evictOldestLocked drops the oldest completed markers. Caller holds mu.
func (t *Tracker) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, m := range t.markers {
		if !m.Completed {
			continue
		}
		if oldestID == "" || m.StartTime.Before(oldest) {
			oldestID = id
			oldest = m.StartTime
		}
	}
	if oldestID != "" {
		delete(t.markers, oldestID)
	}
}
