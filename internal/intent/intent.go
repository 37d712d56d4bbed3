// Package intent maps raw inbound message text to one of a fixed set of
// intents. Matching is an ordered rule list: the first rule that matches
// wins, so a message containing both "want" and a duration still sets a goal.
package intent

import (
	"regexp"
	"strings"
)

type Kind int

const (
	SetGoal Kind = iota
	MarkDone
	MarkSkip
	MarkPartial
	Help
	Status
	Unknown
)

func (k Kind) String() string {
	switch k {
	case SetGoal:
		return "set_goal"
	case MarkDone:
		return "mark_done"
	case MarkSkip:
		return "mark_skip"
	case MarkPartial:
		return "mark_partial"
	case Help:
		return "help"
	case Status:
		return "status"
	default:
		return "unknown"
	}
}

// Intent is a classified message. Goal carries the original-cased text for
// SetGoal; Echo carries it for MarkPartial.
type Intent struct {
	Kind Kind
	Goal string
	Echo string
}

var durationPattern = regexp.MustCompile(`\d+\s*(min|mins|minutes|hour|hours|hrs)`)

type rule struct {
	kind  Kind
	match func(lower string) bool
}

// Rules are evaluated in order; do not reorder.
var rules = []rule{
	{SetGoal, func(s string) bool {
		return strings.Contains(s, "want") || strings.Contains(s, "goal")
	}},
	{MarkDone, oneOf("done", "yes")},
	{MarkSkip, oneOf("nope", "no", "not today")},
	{MarkPartial, durationPattern.MatchString},
	{Help, oneOf("help", "info")},
	{Status, oneOf("status", "streak")},
}

func oneOf(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if s == w {
				return true
			}
		}
		return false
	}
}

// Classify maps raw message text to an Intent. Matching is case-insensitive
// over the trimmed text; the original casing is preserved in the payload.
func Classify(raw string) Intent {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	for _, r := range rules {
		if !r.match(lower) {
			continue
		}
		in := Intent{Kind: r.kind}
		switch r.kind {
		case SetGoal:
			in.Goal = trimmed
		case MarkPartial:
			in.Echo = trimmed
		}
		return in
	}
	return Intent{Kind: Unknown}
}
