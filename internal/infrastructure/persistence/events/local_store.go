// Package events provides the concrete SQL-based implementations for
// tracking event persistence.
//
// PURPOSE: keep a durable bounded log of funnel events on local storage
// (offline-tolerant buffer and dashboard data source) and mirror each
// event into the remote ingestion store.
package events

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/events"
	"github.com/vitaflowapp/vitaflow-go/internal/domain/repositories"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/persistence/database"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/security"
	"github.com/vitaflowapp/vitaflow-go/pkg/config"
)

// LocalStore is the append-only bounded local event log. It retains only
// the most recent maxEvents rows; older rows are evicted first.
type LocalStore struct {
	db        *database.DB
	logger    *logging.ChanneledLogger
	maxEvents int
}

// NewLocalStore creates a new local event store.
func NewLocalStore(db *database.DB, logger *logging.ChanneledLogger, maxEvents int) *LocalStore {
	if maxEvents <= 0 {
		maxEvents = config.MaxLocalEvents
	}
	return &LocalStore{
		db:        db,
		logger:    logger,
		maxEvents: maxEvents,
	}
}

// Append adds an identifier-stamped copy of the event to the log. Storage
// failure is absorbed here: the funnel must never observe a tracking
// write error, so a full or broken store drops the event and logs it.
func (s *LocalStore) Append(event *events.TrackingEvent) {
	stamped := *event
	if stamped.ID == "" {
		stamped.ID = security.GenerateEventID()
	}

	const query = `
		INSERT INTO tracking_events (id, event_type, block_id, block_type, block_title, answer_id, answer_text, progress, vitality_score, timestamp, session_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := s.db.Exec(
		query,
		stamped.ID,
		string(stamped.EventType),
		stamped.BlockID,
		stamped.BlockType,
		nullString(stamped.BlockTitle),
		nullString(stamped.AnswerID),
		nullString(stamped.AnswerText),
		stamped.Progress,
		nullInt(stamped.VitalityScore),
		stamped.Timestamp,
		stamped.SessionID,
		time.Now().UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		s.logger.Database().Warn("Local event append dropped",
			"error", err.Error(),
			"eventId", stamped.ID,
			"eventType", stamped.EventType,
			"sessionId", stamped.SessionID)
		return
	}

	s.enforceBound()

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		s.logger.LogSlowQuery(query, duration, stamped.SessionID)
	}
}

// enforceBound evicts the oldest rows once the log exceeds its cap.
// Insertion order (rowid) decides age, so eviction is strictly FIFO.
func (s *LocalStore) enforceBound() {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tracking_events`).Scan(&count); err != nil {
		s.logger.Database().Warn("Local event count failed", "error", err.Error())
		return
	}
	if count <= s.maxEvents {
		return
	}

	overflow := count - s.maxEvents
	_, err := s.db.Exec(
		`DELETE FROM tracking_events WHERE rowid IN (SELECT rowid FROM tracking_events ORDER BY rowid ASC LIMIT ?)`,
		overflow,
	)
	if err != nil {
		s.logger.Database().Warn("Local event eviction failed", "error", err.Error(), "overflow", overflow)
	}
}

// ListAll returns every stored event in insertion order.
func (s *LocalStore) ListAll() ([]*events.TrackingEvent, error) {
	return s.List(repositories.EventFilter{})
}

// List returns stored events matching the filter, in insertion order.
func (s *LocalStore) List(filter repositories.EventFilter) ([]*events.TrackingEvent, error) {
	query := `
		SELECT id, event_type, block_id, block_type, block_title, answer_id, answer_text, progress, vitality_score, timestamp, session_id
		FROM tracking_events WHERE 1=1`
	var args []any

	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	if filter.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, filter.EventType)
	}
	if filter.Since > 0 {
		query += ` AND timestamp >= ?`
		args = append(args, filter.Since)
	}
	query += ` ORDER BY rowid ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	start := time.Now()
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var result []*events.TrackingEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		s.logger.LogSlowQuery(query, duration, filter.SessionID)
	}

	return result, nil
}

// Count returns the number of stored events.
func (s *LocalStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tracking_events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// DeleteBySessionID removes all events recorded for a session.
func (s *LocalStore) DeleteBySessionID(sessionID string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM tracking_events WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events for session %s: %w", sessionID, err)
	}
	deleted, _ := res.RowsAffected()
	s.logger.Database().Info("Deleted local events for session", "sessionId", sessionID, "deleted", deleted)
	return deleted, nil
}

// RewriteSessionID relabels events from a synthetic session id to its
// upgraded id. Running it again is a no-op; events already carrying the
// upgraded id are never touched. Remote rows emitted before the upgrade
// keep the synthetic id (the remote store is insert-only).
func (s *LocalStore) RewriteSessionID(oldID, newID string) (int64, error) {
	if oldID == "" || newID == "" || oldID == newID {
		return 0, nil
	}

	res, err := s.db.Exec(`UPDATE tracking_events SET session_id = ? WHERE session_id = ?`, newID, oldID)
	if err != nil {
		return 0, fmt.Errorf("failed to migrate events from %s to %s: %w", oldID, newID, err)
	}
	migrated, _ := res.RowsAffected()
	if migrated > 0 {
		s.logger.Database().Info("Migrated local events to upgraded session id",
			"from", oldID,
			"to", newID,
			"migrated", migrated)
	}
	return migrated, nil
}

func scanEvent(rows *sql.Rows) (*events.TrackingEvent, error) {
	var event events.TrackingEvent
	var eventType string
	var blockTitle, answerID, answerText sql.NullString
	var vitalityScore sql.NullInt64

	err := rows.Scan(
		&event.ID,
		&eventType,
		&event.BlockID,
		&event.BlockType,
		&blockTitle,
		&answerID,
		&answerText,
		&event.Progress,
		&vitalityScore,
		&event.Timestamp,
		&event.SessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	event.EventType = events.EventType(eventType)
	if blockTitle.Valid {
		event.BlockTitle = blockTitle.String
	}
	if answerID.Valid {
		event.AnswerID = answerID.String
	}
	if answerText.Valid {
		event.AnswerText = answerText.String
	}
	if vitalityScore.Valid {
		score := int(vitalityScore.Int64)
		event.VitalityScore = &score
	}

	return &event, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}
