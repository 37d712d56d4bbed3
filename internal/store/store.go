// Package store persists one UserRecord per channel-qualified user ID.
// Backends hold no business logic; duplicate-day rules and streak arithmetic
// live in the streak engine. Put is a whole-record upsert, last writer wins.
package store

import (
	"context"
	"errors"

	"habit-bot/internal/models"
)

// ErrUnavailable wraps backend I/O failures so callers can abort a single
// user's operation without inspecting driver-specific errors.
var ErrUnavailable = errors.New("store unavailable")

type Store interface {
	// Get returns the user's record, or (nil, nil) when none exists.
	Get(ctx context.Context, userID string) (*models.UserRecord, error)
	// Put creates or replaces the user's record.
	Put(ctx context.Context, userID string, rec *models.UserRecord) error
	// List returns every persisted record keyed by user ID.
	List(ctx context.Context) (map[string]*models.UserRecord, error)
}
