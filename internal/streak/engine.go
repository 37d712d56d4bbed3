// Package streak is the pure state-transition core: given the persisted
// record, a classified intent and an injected "today", it produces the new
// record and an outcome category. It never reads a clock and never touches
// storage.
package streak

import (
	"habit-bot/internal/intent"
	"habit-bot/internal/models"
)

type OutcomeKind int

const (
	OutcomeGoalSet OutcomeKind = iota
	OutcomeCompleted
	OutcomePartialCompleted
	OutcomeSkipped
	OutcomeAlreadyLogged
	OutcomeNoGoal
	OutcomeNoGoalStatus
	OutcomeStatusReport
	OutcomeHelp
	OutcomeUnknown
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeGoalSet:
		return "goal_set"
	case OutcomeCompleted:
		return "completed"
	case OutcomePartialCompleted:
		return "partial_completed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeAlreadyLogged:
		return "already_logged"
	case OutcomeNoGoal:
		return "no_goal"
	case OutcomeNoGoalStatus:
		return "no_goal_status"
	case OutcomeStatusReport:
		return "status_report"
	case OutcomeHelp:
		return "help"
	default:
		return "unknown_command"
	}
}

// Outcome is what the engine hands to the response selector. Changed reports
// whether the returned record must be persisted.
type Outcome struct {
	Kind    OutcomeKind
	Changed bool

	Goal          string
	Streak        int
	Echo          string
	CreatedAt     models.Day
	LastCompleted models.Day
}

// Apply runs one transition. rec == nil means no record exists for the user.
// The input record is never mutated; when Changed is set the first return
// value is the record to persist.
func Apply(rec *models.UserRecord, in intent.Intent, today models.Day) (*models.UserRecord, Outcome) {
	switch in.Kind {
	case intent.SetGoal:
		// A new goal always replaces the old record wholesale.
		fresh := &models.UserRecord{
			Goal:      in.Goal,
			CreatedAt: today,
			Streak:    0,
			History:   []models.HistoryEntry{},
		}
		return fresh, Outcome{Kind: OutcomeGoalSet, Changed: true, Goal: in.Goal}

	case intent.MarkDone, intent.MarkPartial:
		if rec == nil {
			return nil, Outcome{Kind: OutcomeNoGoal}
		}
		if rec.LoggedOn(today) {
			return rec, Outcome{Kind: OutcomeAlreadyLogged, Streak: rec.Streak}
		}
		next := rec.Clone()
		if next.LastCompleted == today.Prev() {
			next.Streak++
		} else {
			next.Streak = 1
		}
		next.LastCompleted = today
		next.History = append(next.History, models.HistoryEntry{Date: today, Completed: true})

		out := Outcome{Kind: OutcomeCompleted, Changed: true, Streak: next.Streak}
		if in.Kind == intent.MarkPartial {
			out.Kind = OutcomePartialCompleted
			out.Echo = in.Echo
		}
		return next, out

	case intent.MarkSkip:
		if rec == nil {
			return nil, Outcome{Kind: OutcomeNoGoal}
		}
		// No duplicate-day guard here: a repeated skip on the same day
		// resets the streak again and appends another entry.
		next := rec.Clone()
		next.Streak = 0
		next.History = append(next.History, models.HistoryEntry{Date: today, Completed: false})
		return next, Outcome{Kind: OutcomeSkipped, Changed: true}

	case intent.Status:
		if rec == nil {
			return nil, Outcome{Kind: OutcomeNoGoalStatus}
		}
		return rec, Outcome{
			Kind:          OutcomeStatusReport,
			Goal:          rec.Goal,
			Streak:        rec.Streak,
			CreatedAt:     rec.CreatedAt,
			LastCompleted: rec.LastCompleted,
		}

	case intent.Help:
		return rec, Outcome{Kind: OutcomeHelp}

	default:
		return rec, Outcome{Kind: OutcomeUnknown}
	}
}
