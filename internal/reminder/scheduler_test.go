package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"habit-bot/internal/models"
	"habit-bot/pkg/logger"
)

type memStore struct {
	records map[string]*models.UserRecord
	listErr error
}

func (m *memStore) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	return m.records[userID], nil
}

func (m *memStore) Put(ctx context.Context, userID string, rec *models.UserRecord) error {
	m.records[userID] = rec
	return nil
}

func (m *memStore) List(ctx context.Context) (map[string]*models.UserRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.records, nil
}

// recordingSender collects sends and can fail for chosen users.
type recordingSender struct {
	sent    map[string]string
	failFor map[string]bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: map[string]string{}, failFor: map[string]bool{}}
}

func (s *recordingSender) Send(ctx context.Context, userID, text string) error {
	if s.failFor[userID] {
		return errors.New("provider rejected message")
	}
	s.sent[userID] = text
	return nil
}

const today = models.Day("2026-03-04")

func scanStore() *memStore {
	return &memStore{records: map[string]*models.UserRecord{
		"telegram:1": {
			Goal:    "reading",
			History: []models.HistoryEntry{{Date: today, Completed: true}},
		},
		"telegram:2": {
			Goal:    "running",
			History: []models.HistoryEntry{{Date: "2026-03-03", Completed: true}},
		},
		"telegram:3": {
			Goal:    "meditation",
			History: []models.HistoryEntry{{Date: today, Completed: false}},
		},
	}}
}

func TestScan_SkipsUsersWhoRespondedToday(t *testing.T) {
	sender := newRecordingSender()
	s := NewScheduler(scanStore(), sender, "08:00", logger.Nop())

	sent, err := s.Scan(context.Background(), today, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}
	// A skip entry still counts as having responded.
	if _, ok := sender.sent["telegram:1"]; ok {
		t.Error("reminded a user who completed today")
	}
	if _, ok := sender.sent["telegram:3"]; ok {
		t.Error("reminded a user who skipped today")
	}
	if text := sender.sent["telegram:2"]; text == "" {
		t.Error("did not remind the silent user")
	} else if want := "How's the running? Did you do it? 📚"; text != want {
		t.Errorf("reminder text = %q, want %q", text, want)
	}
}

func TestScan_ForceMessagesEveryone(t *testing.T) {
	sender := newRecordingSender()
	s := NewScheduler(scanStore(), sender, "08:00", logger.Nop())

	sent, err := s.Scan(context.Background(), today, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if sent != 3 {
		t.Errorf("sent = %d, want 3", sent)
	}

	var got []string
	for id := range sender.sent {
		got = append(got, id)
	}
	sort.Strings(got)
	want := []string{"telegram:1", "telegram:2", "telegram:3"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("recipients = %v, want %v", got, want)
	}
}

func TestScan_OneFailureDoesNotStopOthers(t *testing.T) {
	sender := newRecordingSender()
	sender.failFor["telegram:1"] = true
	s := NewScheduler(scanStore(), sender, "08:00", logger.Nop())

	sent, err := s.Scan(context.Background(), today, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if sent != 2 {
		t.Errorf("sent = %d, want 2 (failure isolated per user)", sent)
	}
	if len(sender.sent) != 2 {
		t.Errorf("deliveries = %d, want 2", len(sender.sent))
	}
}

func TestScan_ReadOnly(t *testing.T) {
	st := scanStore()
	s := NewScheduler(st, newRecordingSender(), "08:00", logger.Nop())

	before := len(st.records["telegram:2"].History)
	if _, err := s.Scan(context.Background(), today, false); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := len(st.records["telegram:2"].History); got != before {
		t.Errorf("scan mutated history: %d -> %d", before, got)
	}
}

func TestScan_StoreFailure(t *testing.T) {
	st := &memStore{listErr: errors.New("connection refused")}
	s := NewScheduler(st, newRecordingSender(), "08:00", logger.Nop())

	if _, err := s.Scan(context.Background(), today, false); err == nil {
		t.Error("Scan should surface a store failure")
	}
}

func TestNextTrigger(t *testing.T) {
	s := NewScheduler(&memStore{}, newRecordingSender(), "08:00", logger.Nop())

	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{
			// Before today's trigger: fires today.
			time.Date(2026, 3, 4, 6, 30, 0, 0, time.UTC),
			time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC),
		},
		{
			// After today's trigger: fires tomorrow.
			time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC),
		},
		{
			// Exactly at the trigger: fires tomorrow, not immediately again.
			time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		got, err := s.nextTrigger(tc.now)
		if err != nil {
			t.Fatalf("nextTrigger(%v): %v", tc.now, err)
		}
		if !got.Equal(tc.want) {
			t.Errorf("nextTrigger(%v) = %v, want %v", tc.now, got, tc.want)
		}
	}
}

func TestNextTrigger_BadTime(t *testing.T) {
	s := NewScheduler(&memStore{}, newRecordingSender(), "25:99", logger.Nop())
	if _, err := s.nextTrigger(time.Now()); err == nil {
		t.Error("nextTrigger should reject an unparsable trigger time")
	}
}
