package events

import (
	"context"
	"fmt"
	"time"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/events"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/persistence/database"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/security"
	"github.com/vitaflowapp/vitaflow-go/pkg/config"
)

// RemoteStore mirrors tracking events into the remote ingestion table.
// It is insert-only apart from the administrative bulk delete used by the
// dashboard. Callers treat every failure as acceptable loss of that one
// delivery; nothing here retries.
type RemoteStore struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewRemoteStore creates a new remote ingestion repository.
func NewRemoteStore(db *database.DB, logger *logging.ChanneledLogger) *RemoteStore {
	return &RemoteStore{
		db:     db,
		logger: logger,
	}
}

// Insert writes one enriched event row to the ingestion table.
func (s *RemoteStore) Insert(event *events.TrackingEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := event.ID
	if id == "" {
		id = security.GenerateEventID()
	}

	const query = `
		INSERT INTO tracking_events (id, event_type, block_id, block_type, block_title, answer_id, answer_text, progress, vitality_score, timestamp, session_id, ip_address, country, city, utm_source, utm_medium, utm_campaign, utm_term, utm_content, referrer, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := s.db.ExecContext(
		ctx,
		query,
		id,
		string(event.EventType),
		event.BlockID,
		event.BlockType,
		nullString(event.BlockTitle),
		nullString(event.AnswerID),
		nullString(event.AnswerText),
		event.Progress,
		nullInt(event.VitalityScore),
		event.Timestamp,
		event.SessionID,
		nullString(event.IPAddress),
		nullString(event.Country),
		nullString(event.City),
		nullString(event.UTMSource),
		nullString(event.UTMMedium),
		nullString(event.UTMCampaign),
		nullString(event.UTMTerm),
		nullString(event.UTMContent),
		nullString(event.Referrer),
		time.Now().UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert remote event: %w", err)
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		s.logger.LogSlowQuery(query, duration, event.SessionID)
	}
	return nil
}

// DeleteBySessionID removes all ingested rows for a session.
func (s *RemoteStore) DeleteBySessionID(sessionID string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM tracking_events WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete remote events for session %s: %w", sessionID, err)
	}
	deleted, _ := res.RowsAffected()
	s.logger.Database().Info("Deleted remote events for session", "sessionId", sessionID, "deleted", deleted)
	return deleted, nil
}
