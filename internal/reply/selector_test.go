package reply

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"habit-bot/internal/streak"
	"habit-bot/pkg/logger"
)

func testSelector(seed int64) *Selector {
	return NewSelector(rand.NewSource(seed), logger.Nop())
}

func TestRender_CompletedVariantsEmbedStreak(t *testing.T) {
	s := testSelector(1)
	out := streak.Outcome{Kind: streak.OutcomeCompleted, Streak: 3}

	for i := 0; i < 20; i++ {
		got := s.Render(context.Background(), out)
		if !strings.Contains(got, "Streak: 3 days") {
			t.Fatalf("reply %q does not embed streak count", got)
		}
	}
}

func TestRender_SingularDay(t *testing.T) {
	s := testSelector(1)
	got := s.Render(context.Background(), streak.Outcome{Kind: streak.OutcomeCompleted, Streak: 1})
	if !strings.Contains(got, "1 day!") {
		t.Errorf("reply %q should pluralize 1 as day", got)
	}
}

func TestRender_SameSeedSameSequence(t *testing.T) {
	a, b := testSelector(42), testSelector(42)
	out := streak.Outcome{Kind: streak.OutcomeSkipped}

	for i := 0; i < 10; i++ {
		if got, want := a.Render(context.Background(), out), b.Render(context.Background(), out); got != want {
			t.Fatalf("iteration %d: %q != %q", i, got, want)
		}
	}
}

func TestRender_SkipVariantsComeFromTable(t *testing.T) {
	s := testSelector(7)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		got := s.Render(context.Background(), streak.Outcome{Kind: streak.OutcomeSkipped})
		seen[got] = true
		found := false
		for _, v := range skipReplies {
			if got == v {
				found = true
			}
		}
		if !found {
			t.Fatalf("reply %q is not a registered skip variant", got)
		}
	}
	if len(seen) < 2 {
		t.Error("50 renders produced a single variant; selection does not vary")
	}
}

func TestRender_PartialAppendsStreakSuffix(t *testing.T) {
	s := testSelector(3)
	out := streak.Outcome{Kind: streak.OutcomePartialCompleted, Streak: 2, Echo: "45 mins"}

	for i := 0; i < 20; i++ {
		got := s.Render(context.Background(), out)
		if !strings.Contains(got, "Streak: 2 days!") {
			t.Fatalf("reply %q missing streak suffix", got)
		}
		if strings.Contains(got, "%s") {
			t.Fatalf("reply %q has an unfilled placeholder", got)
		}
	}
}

func TestRender_StatusReportTemplate(t *testing.T) {
	s := testSelector(1)
	out := streak.Outcome{
		Kind:          streak.OutcomeStatusReport,
		Goal:          "I want to read daily",
		Streak:        4,
		CreatedAt:     "2026-03-01",
		LastCompleted: "2026-03-04",
	}
	got := s.Render(context.Background(), out)

	for _, want := range []string{"I want to read daily", "Streak: 4 days", "Started: 2026-03-01", "Last completed: 2026-03-04"} {
		if !strings.Contains(got, want) {
			t.Errorf("status report missing %q:\n%s", want, got)
		}
	}
}

func TestRender_StatusNeverCompleted(t *testing.T) {
	s := testSelector(1)
	got := s.Render(context.Background(), streak.Outcome{
		Kind:      streak.OutcomeStatusReport,
		Goal:      "run",
		CreatedAt: "2026-03-01",
	})
	if !strings.Contains(got, "Last completed: Never") {
		t.Errorf("status report = %q, want Never for zero lastCompleted", got)
	}
}

func TestRender_FixedReplies(t *testing.T) {
	s := testSelector(1)
	cases := []struct {
		kind streak.OutcomeKind
		want string
	}{
		{streak.OutcomeGoalSet, goalSetReply},
		{streak.OutcomeAlreadyLogged, alreadyLoggedReply},
		{streak.OutcomeNoGoal, noGoalReply},
		{streak.OutcomeNoGoalStatus, noGoalStatusReply},
		{streak.OutcomeHelp, helpReply},
		{streak.OutcomeUnknown, unknownReply},
	}
	for _, tc := range cases {
		if got := s.Render(context.Background(), streak.Outcome{Kind: tc.kind}); got != tc.want {
			t.Errorf("Render(%s) = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

type stubGenerator struct {
	text string
	err  error
}

func (g stubGenerator) Generate(ctx context.Context, out streak.Outcome) (string, error) {
	return g.text, g.err
}

func TestRender_GeneratorWins(t *testing.T) {
	s := testSelector(1).WithGenerator(stubGenerator{text: "Nice work, bookworm!"})
	got := s.Render(context.Background(), streak.Outcome{Kind: streak.OutcomeCompleted, Streak: 2})
	if got != "Nice work, bookworm!" {
		t.Errorf("Render = %q, want generator text", got)
	}
}

func TestRender_GeneratorFailureFallsBack(t *testing.T) {
	s := testSelector(1).WithGenerator(stubGenerator{err: errors.New("rate limited")})
	got := s.Render(context.Background(), streak.Outcome{Kind: streak.OutcomeCompleted, Streak: 2})
	if !strings.Contains(got, "Streak: 2 days") {
		t.Errorf("fallback reply = %q, want a static completed phrase", got)
	}
}

func TestRender_GeneratorNotConsultedForStatus(t *testing.T) {
	s := testSelector(1).WithGenerator(stubGenerator{text: "should not appear"})
	got := s.Render(context.Background(), streak.Outcome{Kind: streak.OutcomeStatusReport, Goal: "run", CreatedAt: "2026-03-01"})
	if got == "should not appear" {
		t.Error("generator must not phrase deterministic outcomes")
	}
}

func TestReminderText(t *testing.T) {
	got := Reminder("reading")
	if !strings.Contains(got, "reading") {
		t.Errorf("Reminder = %q, want goal embedded", got)
	}
}
