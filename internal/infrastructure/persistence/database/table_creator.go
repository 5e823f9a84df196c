// Package database provides schema instantiation
package database

import (
	"database/sql"
	"fmt"
)

var tables = []string{
	`CREATE TABLE IF NOT EXISTS tracking_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		block_id INTEGER NOT NULL,
		block_type TEXT NOT NULL,
		block_title TEXT,
		answer_id TEXT,
		answer_text TEXT,
		progress INTEGER NOT NULL DEFAULT 0,
		vitality_score INTEGER,
		timestamp INTEGER NOT NULL,
		session_id TEXT NOT NULL,
		ip_address TEXT,
		country TEXT,
		city TEXT,
		utm_source TEXT,
		utm_medium TEXT,
		utm_campaign TEXT,
		utm_term TEXT,
		utm_content TEXT,
		referrer TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_tracking_events_session ON tracking_events(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tracking_events_type ON tracking_events(event_type)`,
	`CREATE INDEX IF NOT EXISTS idx_tracking_events_timestamp ON tracking_events(timestamp)`,
}

// TableCreator handles the creation of the tracking schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tracking tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}
