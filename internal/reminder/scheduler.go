// Package reminder runs the daily nudge: once per day it scans every record
// and messages users who have not responded yet. The manual trigger reuses
// the same scan with the filter switched off.
package reminder

import (
	"context"
	"fmt"
	"time"

	"habit-bot/internal/models"
	"habit-bot/internal/reply"
	"habit-bot/internal/store"
	"habit-bot/pkg/logger"
)

// Sender delivers one outbound message. Failures are logged per user and
// never stop the scan.
type Sender interface {
	Send(ctx context.Context, userID, text string) error
}

type Scheduler struct {
	store  store.Store
	sender Sender
	logger *logger.Logger
	at     string // wall-clock trigger, "15:04"
	now    func() time.Time
}

func NewScheduler(st store.Store, sender Sender, at string, log *logger.Logger) *Scheduler {
	if at == "" {
		at = "08:00"
	}
	return &Scheduler{
		store:  st,
		sender: sender,
		logger: log,
		at:     at,
		now:    time.Now,
	}
}

// WithNow overrides the clock. Tests freeze it.
func (s *Scheduler) WithNow(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Run fires Scan at the configured local wall-clock time until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next, err := s.nextTrigger(s.now())
		if err != nil {
			s.logger.Error("invalid reminder time, scheduler disabled", "at", s.at, "error", err)
			return
		}
		s.logger.Info("next reminder scan scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		now := s.now()
		sent, err := s.Scan(ctx, models.DayOf(now), false)
		if err != nil {
			s.logger.Error("daily reminder scan failed", "error", err)
			continue
		}
		s.logger.Info("daily reminder scan completed", "sent", sent)
	}
}

// nextTrigger returns the next occurrence of the configured wall-clock time
// after now, in now's location.
func (s *Scheduler) nextTrigger(now time.Time) (time.Time, error) {
	at, err := time.Parse("15:04", s.at)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse trigger time %q: %w", s.at, err)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

// Scan iterates all records and sends a reminder to every user without a
// history entry for today. With force set the filter is skipped and every
// user is messaged (the manual trigger path). Read-only: no record is
// mutated. Returns how many reminders were sent.
func (s *Scheduler) Scan(ctx context.Context, today models.Day, force bool) (int, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list records: %w", err)
	}

	sent := 0
	for userID, rec := range users {
		if !force && rec.LoggedOn(today) {
			continue
		}
		if err := s.sender.Send(ctx, userID, reply.Reminder(rec.Goal)); err != nil {
			s.logger.Error("failed to send reminder", "user_id", userID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}
