package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/session"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/caching/stores"
)

func TestGeoResolutionHappensOncePerSession(t *testing.T) {
	logger := testLogger(t)
	sessions := stores.NewSessionsStore(time.Hour, logger)
	resolver := &fakeResolver{location: &session.GeoLocation{IP: "203.0.113.7", Country: "Germany", City: "Berlin"}}
	service := NewGeoService(resolver, sessions, logger, testTracker())

	sessions.Set(&stores.SessionData{SessionID: "session_1_abc", SyntheticID: "session_1_abc"})

	for i := 0; i < 5; i++ {
		loc := service.EnsureResolved(context.Background(), "session_1_abc", "203.0.113.7")
		if loc == nil || loc.Country != "Germany" {
			t.Fatalf("iteration %d: expected resolved location, got %+v", i, loc)
		}
	}

	if got := resolver.callCount(); got != 1 {
		t.Errorf("expected exactly one resolver call, got %d", got)
	}
}

func TestConcurrentGeoResolutionCollapsesToOneCall(t *testing.T) {
	logger := testLogger(t)
	sessions := stores.NewSessionsStore(time.Hour, logger)
	resolver := &fakeResolver{location: &session.GeoLocation{IP: "203.0.113.7", Country: "Germany"}}
	service := NewGeoService(resolver, sessions, logger, testTracker())

	sessions.Set(&stores.SessionData{SessionID: "session_3_ghi", SyntheticID: "session_3_ghi"})

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			loc := service.EnsureResolved(context.Background(), "session_3_ghi", "203.0.113.7")
			if loc == nil || loc.Country != "Germany" {
				t.Errorf("expected resolved location, got %+v", loc)
			}
		}()
	}
	close(start)
	wg.Wait()

	// Callers that raced the flight collapse onto it; callers that arrived
	// after it finished hit the session cache. Either way the provider is
	// consulted exactly once.
	if got := resolver.callCount(); got != 1 {
		t.Errorf("expected exactly one resolver call under concurrency, got %d", got)
	}
}

func TestGeoFailureIsFinal(t *testing.T) {
	logger := testLogger(t)
	sessions := stores.NewSessionsStore(time.Hour, logger)
	resolver := &fakeResolver{err: errors.New("provider down")}
	service := NewGeoService(resolver, sessions, logger, testTracker())

	sessions.Set(&stores.SessionData{SessionID: "session_2_def", SyntheticID: "session_2_def"})

	if loc := service.EnsureResolved(context.Background(), "session_2_def", "203.0.113.7"); loc != nil {
		t.Fatalf("expected nil location on failure, got %+v", loc)
	}

	// The session must now be marked resolved and never retried, even if
	// the provider has recovered.
	resolver.mu.Lock()
	resolver.err = nil
	resolver.location = &session.GeoLocation{IP: "203.0.113.7"}
	resolver.mu.Unlock()

	if loc := service.EnsureResolved(context.Background(), "session_2_def", "203.0.113.7"); loc != nil {
		t.Errorf("expected failure to be permanent, got %+v", loc)
	}
	if got := resolver.callCount(); got != 1 {
		t.Errorf("expected no retry after failure, got %d calls", got)
	}

	data, ok := sessions.Get("session_2_def")
	if !ok || !data.GeoResolved {
		t.Errorf("expected session marked GeoResolved after failure")
	}
}

func TestGeoUnknownSessionIsIgnored(t *testing.T) {
	logger := testLogger(t)
	sessions := stores.NewSessionsStore(time.Hour, logger)
	resolver := &fakeResolver{location: &session.GeoLocation{IP: "203.0.113.7"}}
	service := NewGeoService(resolver, sessions, logger, testTracker())

	if loc := service.EnsureResolved(context.Background(), "session_missing", "203.0.113.7"); loc != nil {
		t.Fatalf("expected nil for unknown session, got %+v", loc)
	}
	if got := resolver.callCount(); got != 0 {
		t.Errorf("expected no resolver call for unknown session, got %d", got)
	}
}
