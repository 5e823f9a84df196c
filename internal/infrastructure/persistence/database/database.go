// Package database provides the core functionality for creating and managing
// database connections in a clean, isolated manner.
package database

import (
	"database/sql"
	"time"

	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/pkg/config"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
}

// NewLocalConnection opens the on-disk SQLite store backing the local
// event log.
func NewLocalConnection(path string, logger *logging.ChanneledLogger) (*DB, error) {
	return newConnection("sqlite3", path, logger)
}

// NewRemoteConnection opens the remote ingestion store over libsql. The
// auth token, when present, is appended to the connection URL.
func NewRemoteConnection(url, authToken string, logger *logging.ChanneledLogger) (*DB, error) {
	connStr := url
	if authToken != "" {
		connStr = url + "?authToken=" + authToken
	}
	return newConnection("libsql", connStr, logger)
}

func newConnection(driverName, dataSourceName string, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	logger.Database().Debug("Creating new database connection", "driverName", driverName)

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", driverName)
		return nil, err
	}

	if err = db.Ping(); err != nil {
		logger.Database().Error("Database ping failed", "error", err.Error(), "driverName", driverName)
		return nil, err
	}

	logger.Database().Info("Database connection established", "driverName", driverName, "duration", time.Since(start))
	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		logger.LogSlowQuery("DATABASE_CONNECTION", duration, "system")
	}

	return &DB{db}, nil
}
