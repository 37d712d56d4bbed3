package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"habit-bot/internal/models"
)

// SQLiteStore is the embedded single-file backend. Same logical schema as the
// Postgres store, history serialized as a JSON text column.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS habit_users (
    user_id        TEXT PRIMARY KEY,
    goal           TEXT NOT NULL,
    created_at     TEXT NOT NULL,
    streak         INTEGER NOT NULL DEFAULT 0,
    last_completed TEXT,
    history        TEXT NOT NULL DEFAULT '[]',
    updated_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// modernc sqlite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	query := `SELECT goal, created_at, streak, last_completed, history
	          FROM habit_users WHERE user_id = ?`

	var (
		rec           models.UserRecord
		createdAt     string
		lastCompleted sql.NullString
		history       string
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&rec.Goal, &createdAt, &rec.Streak, &lastCompleted, &history,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, userID, err)
	}

	rec.CreatedAt = models.Day(createdAt)
	if lastCompleted.Valid {
		rec.LastCompleted = models.Day(lastCompleted.String)
	}
	if err := json.Unmarshal([]byte(history), &rec.History); err != nil {
		return nil, fmt.Errorf("%w: decode history for %s: %v", ErrUnavailable, userID, err)
	}
	return &rec, nil
}

func (s *SQLiteStore) Put(ctx context.Context, userID string, rec *models.UserRecord) error {
	history, err := json.Marshal(rec.History)
	if err != nil {
		return fmt.Errorf("%w: encode history for %s: %v", ErrUnavailable, userID, err)
	}

	var lastCompleted interface{}
	if !rec.LastCompleted.IsZero() {
		lastCompleted = string(rec.LastCompleted)
	}

	query := `
	INSERT INTO habit_users (user_id, goal, created_at, streak, last_completed, history)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE
	SET goal = excluded.goal,
	    created_at = excluded.created_at,
	    streak = excluded.streak,
	    last_completed = excluded.last_completed,
	    history = excluded.history,
	    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

	if _, err := s.db.ExecContext(ctx, query,
		userID, rec.Goal, string(rec.CreatedAt), rec.Streak, lastCompleted, string(history),
	); err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, userID, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) (map[string]*models.UserRecord, error) {
	query := `SELECT user_id, goal, created_at, streak, last_completed, history
	          FROM habit_users`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	out := make(map[string]*models.UserRecord)
	for rows.Next() {
		var (
			userID        string
			rec           models.UserRecord
			createdAt     string
			lastCompleted sql.NullString
			history       string
		)
		if err := rows.Scan(&userID, &rec.Goal, &createdAt, &rec.Streak, &lastCompleted, &history); err != nil {
			return nil, fmt.Errorf("%w: list scan: %v", ErrUnavailable, err)
		}
		rec.CreatedAt = models.Day(createdAt)
		if lastCompleted.Valid {
			rec.LastCompleted = models.Day(lastCompleted.String)
		}
		if err := json.Unmarshal([]byte(history), &rec.History); err != nil {
			return nil, fmt.Errorf("%w: decode history for %s: %v", ErrUnavailable, userID, err)
		}
		out[userID] = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list rows: %v", ErrUnavailable, err)
	}
	return out, nil
}
