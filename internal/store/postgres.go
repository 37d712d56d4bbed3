package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"habit-bot/internal/models"
)

// PostgresConfig mirrors the DB section of the app config.
type PostgresConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// PostgresStore keeps one row per user; history is a JSONB column because the
// engine always reads and writes the record as a whole.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS habit_users (
    user_id        TEXT PRIMARY KEY,
    goal           TEXT NOT NULL,
    created_at     TEXT NOT NULL,
    streak         INT  NOT NULL DEFAULT 0,
    last_completed TEXT,
    history        JSONB NOT NULL DEFAULT '[]',
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnLifetime
	poolConfig.MaxConnIdleTime = 15 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	query := `
        SELECT goal, created_at, streak, last_completed, history
        FROM habit_users
        WHERE user_id = $1
    `

	var (
		rec           models.UserRecord
		createdAt     string
		lastCompleted *string
		history       []byte
	)
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&rec.Goal, &createdAt, &rec.Streak, &lastCompleted, &history,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, userID, err)
	}

	rec.CreatedAt = models.Day(createdAt)
	if lastCompleted != nil {
		rec.LastCompleted = models.Day(*lastCompleted)
	}
	if err := json.Unmarshal(history, &rec.History); err != nil {
		return nil, fmt.Errorf("%w: decode history for %s: %v", ErrUnavailable, userID, err)
	}
	return &rec, nil
}

func (s *PostgresStore) Put(ctx context.Context, userID string, rec *models.UserRecord) error {
	history, err := json.Marshal(rec.History)
	if err != nil {
		return fmt.Errorf("%w: encode history for %s: %v", ErrUnavailable, userID, err)
	}

	var lastCompleted *string
	if !rec.LastCompleted.IsZero() {
		v := string(rec.LastCompleted)
		lastCompleted = &v
	}

	query := `
        INSERT INTO habit_users (user_id, goal, created_at, streak, last_completed, history)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id) DO UPDATE
        SET goal = $2, created_at = $3, streak = $4, last_completed = $5, history = $6, updated_at = NOW()
    `

	if _, err := s.pool.Exec(ctx, query,
		userID, rec.Goal, string(rec.CreatedAt), rec.Streak, lastCompleted, history,
	); err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, userID, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) (map[string]*models.UserRecord, error) {
	query := `
        SELECT user_id, goal, created_at, streak, last_completed, history
        FROM habit_users
    `

	rows, err := s.pool.Query(ctx, query)
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
			lastCompleted *string
			history       []byte
		)
		if err := rows.Scan(&userID, &rec.Goal, &createdAt, &rec.Streak, &lastCompleted, &history); err != nil {
			return nil, fmt.Errorf("%w: list scan: %v", ErrUnavailable, err)
		}
		rec.CreatedAt = models.Day(createdAt)
		if lastCompleted != nil {
			rec.LastCompleted = models.Day(*lastCompleted)
		}
		if err := json.Unmarshal(history, &rec.History); err != nil {
			return nil, fmt.Errorf("%w: decode history for %s: %v", ErrUnavailable, userID, err)
		}
		out[userID] = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list rows: %v", ErrUnavailable, err)
	}
	return out, nil
}
