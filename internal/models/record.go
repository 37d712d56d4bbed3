package models

import (
	"time"
)

// DayLayout is the wire and storage format for calendar dates.
const DayLayout = "2006-01-02"

// Day is a calendar date at day granularity, formatted 2006-01-02.
// The zero value "" means "no date" (e.g. never completed).
type Day string

// DayOf truncates a wall-clock instant to its calendar day.
func DayOf(t time.Time) Day {
	return Day(t.Format(DayLayout))
}

// Prev returns the calendar day immediately preceding d.
func (d Day) Prev() Day {
	t, err := time.Parse(DayLayout, string(d))
	if err != nil {
		return ""
	}
	return Day(t.AddDate(0, 0, -1).Format(DayLayout))
}

func (d Day) IsZero() bool {
	return d == ""
}

// HistoryEntry is one day the user responded. History is append-only.
type HistoryEntry struct {
	Date      Day  `json:"date"`
	Completed bool `json:"completed"`
}

// UserRecord is the persisted per-user state, keyed by a channel-qualified
// address (e.g. "telegram:12345").
type UserRecord struct {
	Goal          string         `json:"goal"`
	CreatedAt     Day            `json:"createdAt"`
	Streak        int            `json:"streak"`
	LastCompleted Day            `json:"lastCompleted,omitempty"`
	History       []HistoryEntry `json:"history"`
}

// LoggedOn reports whether the user already has a history entry for day.
func (r *UserRecord) LoggedOn(day Day) bool {
	for _, h := range r.History {
		if h.Date == day {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate without aliasing the
// store's record.
func (r *UserRecord) Clone() *UserRecord {
	if r == nil {
		return nil
	}
	cp := *r
	cp.History = make([]HistoryEntry, len(r.History))
	copy(cp.History, r.History)
	return &cp
}
