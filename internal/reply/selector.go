// Package reply turns engine outcomes into the human-facing message text.
// Variant selection is cosmetic only; it never feeds back into state.
package reply

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"habit-bot/internal/streak"
	"habit-bot/pkg/logger"
)

// Generator is an optional collaborator that phrases encouragement messages.
// A failure is never surfaced to the user; the static table takes over.
type Generator interface {
	Generate(ctx context.Context, out streak.Outcome) (string, error)
}

var doneReplies = []string{
	"YES! 🔥 Streak: %d %s! 💪",
	"I KNEW you'd do it! 🔥 Streak: %d %s! 💪",
	"Crushing it! 🔥 Streak: %d %s! See you tomorrow! 💪",
}

var skipReplies = []string{
	"No worries! Tomorrow's a fresh start. You got this! 💙",
	"It happens! You're still here. That matters! 🚀",
	"All good! Every day is a new chance. Let's go! 💙",
}

var partialReplies = []string{
	"%s?! Still crushing it! 💪",
	"That counts! Effort matters! ✨",
	"Progress is progress! Keep going! 🚀",
}

const (
	goalSetReply = "🎯 Locked in! I'll remind you daily. Let's go! 💪"

	alreadyLoggedReply = "You already logged today! See you tomorrow! 🎉"

	noGoalReply = "Hey! Set a goal first. Text: 'I want to [your goal]'"

	noGoalStatusReply = "You haven't set a goal yet! Text: 'I want to [your goal]'"

	helpReply = "I track your goals! 📊\n\n" +
		"• Set goal: \"I want to [goal]\"\n" +
		"• Log completion: \"done\"\n" +
		"• Log skip: \"nope\"\n" +
		"• Check status: \"status\"\n\n" +
		"I'll remind you daily at 8 AM! Let's go! 🚀"

	unknownReply = "Not sure what you meant! 🤔\n\n" +
		"Try:\n" +
		"• \"I want to [goal]\" - set goal\n" +
		"• \"done\" - mark complete\n" +
		"• \"nope\" - mark incomplete\n" +
		"• \"help\" - get info"
)

// Selector renders outcomes. The random source is injected so tests can pin
// which variant comes out.
type Selector struct {
	mu  sync.Mutex
	rnd *rand.Rand
	gen Generator
	log *logger.Logger
}

func NewSelector(src rand.Source, log *logger.Logger) *Selector {
	return &Selector{rnd: rand.New(src), log: log}
}

// WithGenerator attaches an optional phrasing generator.
func (s *Selector) WithGenerator(gen Generator) *Selector {
	s.gen = gen
	return s
}

// Render produces the reply for an outcome. It always succeeds: the static
// phrase table is the mandatory fallback for every outcome kind.
func (s *Selector) Render(ctx context.Context, out streak.Outcome) string {
	if s.gen != nil && generated(out.Kind) {
		text, err := s.gen.Generate(ctx, out)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			s.log.Warn("phrasing generator failed, using static phrase",
				"outcome", out.Kind.String(), "error", err)
		}
	}
	return s.static(out)
}

// generated reports whether a kind may be phrased by the generator.
func generated(k streak.OutcomeKind) bool {
	switch k {
	case streak.OutcomeGoalSet, streak.OutcomeCompleted,
		streak.OutcomeSkipped, streak.OutcomePartialCompleted:
		return true
	}
	return false
}

func (s *Selector) static(out streak.Outcome) string {
	switch out.Kind {
	case streak.OutcomeGoalSet:
		return goalSetReply
	case streak.OutcomeCompleted:
		return fmt.Sprintf(s.pick(doneReplies), out.Streak, days(out.Streak))
	case streak.OutcomeSkipped:
		return s.pick(skipReplies)
	case streak.OutcomePartialCompleted:
		phrase := s.pick(partialReplies)
		if phrase == partialReplies[0] {
			phrase = fmt.Sprintf(phrase, out.Echo)
		}
		return fmt.Sprintf("%s 🔥 Streak: %d %s!", phrase, out.Streak, days(out.Streak))
	case streak.OutcomeAlreadyLogged:
		return alreadyLoggedReply
	case streak.OutcomeNoGoal:
		return noGoalReply
	case streak.OutcomeNoGoalStatus:
		return noGoalStatusReply
	case streak.OutcomeHelp:
		return helpReply
	case streak.OutcomeStatusReport:
		last := string(out.LastCompleted)
		if out.LastCompleted.IsZero() {
			last = "Never"
		}
		return fmt.Sprintf("📊 Your Status:\n\n"+
			"Goal: %s\n"+
			"🔥 Streak: %d %s\n"+
			"Started: %s\n"+
			"Last completed: %s\n\n"+
			"Keep crushing it! 💪",
			out.Goal, out.Streak, days(out.Streak), out.CreatedAt, last)
	default:
		return unknownReply
	}
}

func (s *Selector) pick(variants []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return variants[s.rnd.Intn(len(variants))]
}

func days(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}

// Reminder is the daily nudge text. Used by the scheduler and the manual
// reminder trigger alike.
func Reminder(goal string) string {
	return fmt.Sprintf("How's the %s? Did you do it? 📚", goal)
}
