package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/events"
	"github.com/vitaflowapp/vitaflow-go/internal/domain/repositories"
	"github.com/vitaflowapp/vitaflow-go/internal/domain/session"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/performance"
)

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToConsole: false,
		OutputToFile:    false,
		JSONFormat:      true,
		DefaultLevel:    slog.LevelError + 4,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func testTracker() *performance.Tracker {
	return performance.NewTracker(performance.DefaultTrackerConfig())
}

// fakeEventStore is an in-memory repositories.EventStore.
type fakeEventStore struct {
	mu       sync.Mutex
	events   []*events.TrackingEvent
	rewrites [][2]string
}

func (f *fakeEventStore) Append(event *events.TrackingEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *event
	f.events = append(f.events, &copied)
}

func (f *fakeEventStore) List(filter repositories.EventFilter) ([]*events.TrackingEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*events.TrackingEvent
	for _, event := range f.events {
		if filter.SessionID != "" && event.SessionID != filter.SessionID {
			continue
		}
		if filter.EventType != "" && string(event.EventType) != filter.EventType {
			continue
		}
		if filter.Since > 0 && event.Timestamp < filter.Since {
			continue
		}
		result = append(result, event)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

func (f *fakeEventStore) Count() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events), nil
}

func (f *fakeEventStore) DeleteBySessionID(sessionID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*events.TrackingEvent
	var deleted int64
	for _, event := range f.events {
		if event.SessionID == sessionID {
			deleted++
			continue
		}
		kept = append(kept, event)
	}
	f.events = kept
	return deleted, nil
}

func (f *fakeEventStore) RewriteSessionID(oldID, newID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rewrites = append(f.rewrites, [2]string{oldID, newID})
	var migrated int64
	for _, event := range f.events {
		if event.SessionID == oldID {
			event.SessionID = newID
			migrated++
		}
	}
	return migrated, nil
}

// fakeRemoteStore records inserts so tests can assert on enrichment.
type fakeRemoteStore struct {
	mu      sync.Mutex
	inserts []*events.TrackingEvent
	deletes []string
}

func (f *fakeRemoteStore) Insert(event *events.TrackingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *event
	f.inserts = append(f.inserts, &copied)
	return nil
}

func (f *fakeRemoteStore) DeleteBySessionID(sessionID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, sessionID)
	return 0, nil
}

// fakeResolver is a scriptable GeoResolver that counts its invocations.
type fakeResolver struct {
	mu       sync.Mutex
	calls    int
	location *session.GeoLocation
	err      error
}

func (f *fakeResolver) Resolve(ctx context.Context, clientIP string) (*session.GeoLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.location, nil
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
