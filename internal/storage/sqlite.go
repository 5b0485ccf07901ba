package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteProgressStore implements ProgressStore on a local SQLite file.
// Suitable for single-node deployments where a Redis instance is not
// worth running.
type SQLiteProgressStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure SQLiteProgressStore implements ProgressStore interface
var _ ProgressStore = (*SQLiteProgressStore)(nil)

// NewSQLiteProgressStore opens or creates a SQLite database at the
// given path and applies the schema.
func NewSQLiteProgressStore(dbPath string, logger *slog.Logger) (*SQLiteProgressStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteProgressStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteProgressStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS progress (
		story_id   TEXT NOT NULL,
		player_id  TEXT NOT NULL,
		record     TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (story_id, player_id)
	);`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteProgressStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteProgressStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", "error", err)
		return err
	}
	return nil
}

// WaitForConnection is immediate for a local database; it just pings.
func (s *SQLiteProgressStore) WaitForConnection(ctx context.Context) error {
	return s.Ping(ctx)
}

func (s *SQLiteProgressStore) GetProgress(ctx context.Context, storyID, playerID string) (*PersistedProgress, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM progress WHERE story_id = ? AND player_id = ?`,
		storyID, playerID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			s.logger.Debug("Progress record not found", "story_id", storyID, "player_id", playerID)
			return nil, nil // Return nil for not found
		}
		s.logger.Error("Failed to load progress record", "story_id", storyID, "player_id", playerID, "error", err)
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	var rec PersistedProgress
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		s.logger.Error("Failed to unmarshal progress record", "story_id", storyID, "player_id", playerID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}

	return &rec, nil
}

func (s *SQLiteProgressStore) PutProgress(ctx context.Context, rec *PersistedProgress) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO progress (story_id, player_id, record, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (story_id, player_id)
		DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		rec.StoryID, rec.PlayerID, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Error("Failed to save progress record", "story_id", rec.StoryID, "player_id", rec.PlayerID, "error", err)
		return fmt.Errorf("failed to save progress: %w", err)
	}

	return nil
}

func (s *SQLiteProgressStore) DeleteProgress(ctx context.Context, storyID, playerID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM progress WHERE story_id = ? AND player_id = ?`,
		storyID, playerID)
	if err != nil {
		s.logger.Error("Failed to delete progress record", "story_id", storyID, "player_id", playerID, "error", err)
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}
