package services

import (
	"testing"
	"time"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/events"
	"github.com/vitaflowapp/vitaflow-go/internal/domain/session"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/caching/stores"
)

func newDashboardServiceForTest(t *testing.T) (*DashboardService, *fakeEventStore, *fakeRemoteStore, *stores.SessionsStore) {
	t.Helper()
	logger := testLogger(t)
	sessions := stores.NewSessionsStore(time.Hour, logger)
	local := &fakeEventStore{}
	remote := &fakeRemoteStore{}
	return NewDashboardService(local, remote, sessions, logger), local, remote, sessions
}

func seedEvent(store *fakeEventStore, sessionID string, eventType events.EventType, blockID, progress int, ts int64) {
	store.Append(&events.TrackingEvent{
		SessionID: sessionID,
		EventType: eventType,
		BlockID:   blockID,
		Progress:  progress,
		Timestamp: ts,
	})
}

func TestListSessionsAggregates(t *testing.T) {
	service, local, _, sessions := newDashboardServiceForTest(t)

	seedEvent(local, "ip_203_0_113_7", events.EventBlockView, 1, 5, 1000)
	seedEvent(local, "ip_203_0_113_7", events.EventBlockCompleted, 12, 57, 3000)
	seedEvent(local, "ip_203_0_113_7", events.EventCheckoutClick, 20, 100, 4000)
	seedEvent(local, "session_9_zz", events.EventBlockView, 1, 5, 2000)

	sessions.Set(&stores.SessionData{
		SessionID:   "ip_203_0_113_7",
		Location:    &session.GeoLocation{Country: "Germany", City: "Berlin"},
		GeoResolved: true,
		Attribution: session.Attribution{UTMSource: "facebook"},
	})

	summaries, err := service.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 session summaries, got %d", len(summaries))
	}

	// Most recently active first.
	top := summaries[0]
	if top.SessionID != "ip_203_0_113_7" {
		t.Fatalf("expected busiest session first, got %q", top.SessionID)
	}
	if top.EventCount != 3 || top.MaxProgress != 100 || !top.CheckedOut {
		t.Errorf("aggregation wrong: %+v", top)
	}
	if top.FirstSeen != 1000 || top.LastSeen != 4000 {
		t.Errorf("time range wrong: first=%d last=%d", top.FirstSeen, top.LastSeen)
	}
	if top.Country != "Germany" || top.UTMSource != "facebook" {
		t.Errorf("live-session enrichment missing: %+v", top)
	}
}

func TestStatsCountsFunnelActivity(t *testing.T) {
	service, local, _, _ := newDashboardServiceForTest(t)

	seedEvent(local, "a", events.EventBlockView, 1, 5, 1000)
	seedEvent(local, "a", events.EventBlockView, 8, 38, 2000)
	seedEvent(local, "b", events.EventBlockView, 1, 5, 1500)
	seedEvent(local, "b", events.EventCheckoutClick, 20, 100, 2500)

	stats, err := service.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEvents != 4 || stats.TotalSessions != 2 {
		t.Errorf("totals wrong: %+v", stats)
	}
	if stats.CheckoutClicks != 1 {
		t.Errorf("expected 1 checkout click, got %d", stats.CheckoutClicks)
	}
	if stats.EventsByType["block_view"] != 3 {
		t.Errorf("expected 3 block views, got %d", stats.EventsByType["block_view"])
	}
	if stats.DropOffByBlock[8] != 1 || stats.DropOffByBlock[20] != 1 {
		t.Errorf("drop-off wrong: %+v", stats.DropOffByBlock)
	}
}

func TestDeleteSessionSurvivesRemoteOutage(t *testing.T) {
	logger := testLogger(t)
	sessions := stores.NewSessionsStore(time.Hour, logger)
	local := &fakeEventStore{}
	// No remote store configured at all.
	service := NewDashboardService(local, nil, sessions, logger)

	seedEvent(local, "ip_1_2_3_4", events.EventBlockView, 1, 5, 1000)
	seedEvent(local, "ip_1_2_3_4", events.EventBlockView, 2, 10, 2000)

	deleted, err := service.DeleteSession("ip_1_2_3_4")
	if err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted events, got %d", deleted)
	}
	if count, _ := local.Count(); count != 0 {
		t.Errorf("local events remain after delete: %d", count)
	}
}
