package events

import (
	"log/slog"
	"testing"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/events"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/persistence/database"
)

func newRemoteTestDB(t *testing.T) (*database.DB, *logging.ChanneledLogger) {
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

	db, err := database.NewLocalConnection(":memory:", logger)
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db, logger
}

// A fresh ingestion store carries no schema; inserts must surface the
// failure rather than appear to succeed.
func TestRemoteStoreRequiresSchema(t *testing.T) {
	db, logger := newRemoteTestDB(t)
	store := NewRemoteStore(db, logger)

	err := store.Insert(&events.TrackingEvent{
		EventType: events.EventBlockView,
		BlockID:   1,
		BlockType: "question",
		Timestamp: 1000,
		SessionID: "session_1_a",
	})
	if err == nil {
		t.Fatal("insert into a schemaless store must fail")
	}
}

// Startup applies the table creator to the ingestion handle before any
// event is mirrored; after that, enriched inserts round-trip.
func TestRemoteStoreInsertAfterSchemaCreation(t *testing.T) {
	db, logger := newRemoteTestDB(t)

	if err := database.NewTableCreator().CreateSchema(db.DB); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	store := NewRemoteStore(db, logger)

	score := 1850
	err := store.Insert(&events.TrackingEvent{
		EventType:     events.EventCheckoutClick,
		BlockID:       21,
		BlockType:     "offer",
		Progress:      100,
		VitalityScore: &score,
		Timestamp:     1000,
		SessionID:     "ip_203_0_113_7",
		IPAddress:     "203.0.113.7",
		Country:       "Germany",
		City:          "Berlin",
		UTMSource:     "facebook",
		UTMCampaign:   "spring",
		Referrer:      "https://news.example.com",
	})
	if err != nil {
		t.Fatalf("insert after schema creation failed: %v", err)
	}

	var count int
	var country, utmSource string
	row := db.QueryRow(`SELECT COUNT(*), country, utm_source FROM tracking_events WHERE session_id = ?`, "ip_203_0_113_7")
	if err := row.Scan(&count, &country, &utmSource); err != nil {
		t.Fatalf("failed to read ingested row: %v", err)
	}
	if count != 1 || country != "Germany" || utmSource != "facebook" {
		t.Errorf("ingested row malformed: count=%d country=%q utmSource=%q", count, country, utmSource)
	}

	deleted, err := store.DeleteBySessionID("ip_203_0_113_7")
	if err != nil {
		t.Fatalf("DeleteBySessionID failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted row, got %d", deleted)
	}
}
