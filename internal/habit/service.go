// Package habit wires the classify → apply → persist → render pipeline that
// every inbound message goes through, regardless of transport.
package habit

import (
	"context"
	"fmt"
	"time"

	"habit-bot/internal/intent"
	"habit-bot/internal/models"
	"habit-bot/internal/reply"
	"habit-bot/internal/store"
	"habit-bot/internal/streak"
	"habit-bot/pkg/logger"
)

type Service struct {
	store    store.Store
	selector *reply.Selector
	logger   *logger.Logger
	now      func() time.Time
}

func NewService(st store.Store, sel *reply.Selector, log *logger.Logger) *Service {
	return &Service{
		store:    st,
		selector: sel,
		logger:   log,
		now:      time.Now,
	}
}

// WithNow overrides the clock. Tests freeze it.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// HandleMessage runs one inbound message through the pipeline and returns the
// reply text. A store failure aborts this message only; the caller delivers
// the reply and logs (but does not propagate) delivery failures, since the
// record is already committed by then.
func (s *Service) HandleMessage(ctx context.Context, userID, body string) (string, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load record", "user_id", userID, "error", err)
		return "", fmt.Errorf("load record for %s: %w", userID, err)
	}

	in := intent.Classify(body)
	today := models.DayOf(s.now())

	newRec, out := streak.Apply(rec, in, today)

	s.logger.Info("handled message",
		"user_id", userID,
		"intent", in.Kind.String(),
		"outcome", out.Kind.String(),
		"streak", out.Streak)

	if out.Changed {
		if err := s.store.Put(ctx, userID, newRec); err != nil {
			s.logger.Error("failed to save record", "user_id", userID, "error", err)
			return "", fmt.Errorf("save record for %s: %w", userID, err)
		}
	}

	return s.selector.Render(ctx, out), nil
}

// Record exposes one user's record for the inspection endpoints.
func (s *Service) Record(ctx context.Context, userID string) (*models.UserRecord, error) {
	return s.store.Get(ctx, userID)
}

// Records exposes all records for the inspection endpoints.
func (s *Service) Records(ctx context.Context) (map[string]*models.UserRecord, error) {
	return s.store.List(ctx)
}
