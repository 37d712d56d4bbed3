package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"habit-bot/internal/models"
)

// FileStore persists all records as one JSON object keyed by user ID, the
// zero-dependency backend. Saves rewrite the whole file via a temp-file
// rename so a crash mid-write cannot truncate it.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.save(map[string]*models.UserRecord{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}
	return users[userID], nil
}

func (s *FileStore) Put(ctx context.Context, userID string, rec *models.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}
	users[userID] = rec
	return s.save(users)
}

func (s *FileStore) List(ctx context.Context) (map[string]*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() (map[string]*models.UserRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*models.UserRecord{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, s.path, err)
	}

	users := map[string]*models.UserRecord{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &users); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, s.path, err)
		}
	}
	return users, nil
}

func (s *FileStore) save(users map[string]*models.UserRecord) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrUnavailable, s.path, err)
	}

	tmp := filepath.Join(filepath.Dir(s.path), "."+filepath.Base(s.path)+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrUnavailable, s.path, err)
	}
	return nil
}
