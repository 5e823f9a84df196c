package events

import (
	"log/slog"
	"testing"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/events"
	"github.com/vitaflowapp/vitaflow-go/internal/domain/repositories"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/persistence/database"
)

func newTestStore(t *testing.T, maxEvents int) *LocalStore {
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

	if err := database.NewTableCreator().CreateSchema(db.DB); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return NewLocalStore(db, logger, maxEvents)
}

func makeEvent(sessionID string, blockID int, ts int64) *events.TrackingEvent {
	return &events.TrackingEvent{
		EventType: events.EventBlockView,
		BlockID:   blockID,
		BlockType: "question",
		Progress:  events.Progress(blockID, events.DefaultTotalBlocks),
		Timestamp: ts,
		SessionID: sessionID,
	}
}

func TestAppendAndList(t *testing.T) {
	store := newTestStore(t, 100)

	store.Append(makeEvent("session_1_a", 1, 1000))
	store.Append(makeEvent("session_1_a", 2, 2000))
	store.Append(makeEvent("session_2_b", 1, 1500))

	all, err := store.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].ID == "" {
		t.Error("stored event is missing a generated id")
	}

	filtered, err := store.List(repositories.EventFilter{SessionID: "session_1_a"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 events for session, got %d", len(filtered))
	}

	since, err := store.List(repositories.EventFilter{Since: 1500})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(since) != 2 {
		t.Errorf("expected 2 events since t=1500, got %d", len(since))
	}
}

func TestBoundEvictsOldestFirst(t *testing.T) {
	store := newTestStore(t, 5)

	for i := 1; i <= 8; i++ {
		store.Append(makeEvent("session_1_a", i, int64(i*1000)))
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected cap of 5 events, got %d", count)
	}

	all, err := store.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	// Blocks 1-3 were the oldest rows; only 4-8 survive.
	if all[0].BlockID != 4 || all[len(all)-1].BlockID != 8 {
		t.Errorf("eviction not FIFO: first=%d last=%d", all[0].BlockID, all[len(all)-1].BlockID)
	}
}

func TestRewriteSessionIDIsIdempotent(t *testing.T) {
	store := newTestStore(t, 100)

	store.Append(makeEvent("session_1_a", 1, 1000))
	store.Append(makeEvent("session_1_a", 2, 2000))
	store.Append(makeEvent("ip_9_9_9_9", 1, 1500))

	migrated, err := store.RewriteSessionID("session_1_a", "ip_203_0_113_7")
	if err != nil {
		t.Fatalf("RewriteSessionID failed: %v", err)
	}
	if migrated != 2 {
		t.Errorf("expected 2 migrated rows, got %d", migrated)
	}

	again, err := store.RewriteSessionID("session_1_a", "ip_203_0_113_7")
	if err != nil {
		t.Fatalf("second RewriteSessionID failed: %v", err)
	}
	if again != 0 {
		t.Errorf("second rewrite must be a no-op, migrated %d", again)
	}

	if n, err := store.RewriteSessionID("", "ip_x"); err != nil || n != 0 {
		t.Errorf("empty old id must be a no-op, got n=%d err=%v", n, err)
	}
	if n, err := store.RewriteSessionID("same", "same"); err != nil || n != 0 {
		t.Errorf("identical ids must be a no-op, got n=%d err=%v", n, err)
	}

	other, err := store.List(repositories.EventFilter{SessionID: "ip_9_9_9_9"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(other) != 1 {
		t.Errorf("unrelated session touched by rewrite: %d events", len(other))
	}
}

func TestDeleteBySessionID(t *testing.T) {
	store := newTestStore(t, 100)

	store.Append(makeEvent("session_1_a", 1, 1000))
	store.Append(makeEvent("session_1_a", 2, 2000))
	store.Append(makeEvent("session_2_b", 1, 1500))

	deleted, err := store.DeleteBySessionID("session_1_a")
	if err != nil {
		t.Fatalf("DeleteBySessionID failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted rows, got %d", deleted)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 remaining event, got %d", count)
	}
}

func TestNullableColumnsRoundTrip(t *testing.T) {
	store := newTestStore(t, 100)

	score := 1850
	store.Append(&events.TrackingEvent{
		EventType:     events.EventAnswerSelected,
		BlockID:       7,
		BlockType:     "question",
		BlockTitle:    "Sleep quality",
		AnswerID:      "opt_3",
		AnswerText:    "Less than 6 hours",
		Progress:      33,
		VitalityScore: &score,
		Timestamp:     1000,
		SessionID:     "session_1_a",
	})
	store.Append(makeEvent("session_1_a", 8, 2000)) // all nullable fields empty

	all, err := store.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}

	full := all[0]
	if full.BlockTitle != "Sleep quality" || full.AnswerText != "Less than 6 hours" {
		t.Errorf("text columns lost: %+v", full)
	}
	if full.VitalityScore == nil || *full.VitalityScore != 1850 {
		t.Errorf("vitality score lost: %+v", full.VitalityScore)
	}

	bare := all[1]
	if bare.BlockTitle != "" || bare.AnswerID != "" || bare.VitalityScore != nil {
		t.Errorf("empty fields not stored as null: %+v", bare)
	}
}
