package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iwvelando/park-planner/pkg/constants"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	*sqlStore
	path string
}

// NewSQLite opens (and if needed creates) the database at path. ":memory:"
// yields a private in-memory database.
func NewSQLite(ctx context.Context, logger *zap.Logger, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store requires a dsn")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	s := &SQLite{
		sqlStore: &sqlStore{db: db, logger: logger, dialect: constants.StoreDriverSQLite},
		path:     path,
	}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("opened sqlite store",
		zap.String("op", "store.NewSQLite"),
		zap.String("path", path),
	)
	return s, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

var _ Store = (*SQLite)(nil)
