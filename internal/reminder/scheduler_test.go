package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/susu3304/finbot/internal/ledger"
)

type fakeStore struct {
	mu        sync.Mutex
	reminders map[int64]*ledger.Reminder
	loads     int
}

func newFakeStore(rs ...ledger.Reminder) *fakeStore {
	s := &fakeStore{reminders: make(map[int64]*ledger.Reminder)}
	for i := range rs {
		r := rs[i]
		s.reminders[r.ID] = &r
	}
	return s
}

func (s *fakeStore) DueReminders(ctx context.Context, now time.Time, maxAttempts int) ([]ledger.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	var out []ledger.Reminder
	for _, r := range s.reminders {
		if r.IsSent || r.ScheduledAt.After(now) {
			continue
		}
		if maxAttempts > 0 && r.Attempts >= maxAttempts {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *fakeStore) MarkReminderSent(ctx context.Context, id int64, sentAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.reminders[id]
	if r.IsSent {
		return false, nil
	}
	r.IsSent = true
	return true, nil
}

func (s *fakeStore) RecordReminderFailure(ctx context.Context, id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.reminders[id]
	r.Attempts++
	return r.Attempts, nil
}

func (s *fakeStore) get(id int64) ledger.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.reminders[id]
}

type fakeSender struct {
	mu      sync.Mutex
	sent    map[string]int
	failFor map[string]bool
	block   chan struct{}
}

func (f *fakeSender) SendText(ctx context.Context, chatID, text string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[chatID] {
		return errors.New("403 forbidden")
	}
	if f.sent == nil {
		f.sent = make(map[string]int)
	}
	f.sent[chatID]++
	return nil
}

func (f *fakeSender) count(chatID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[chatID]
}

func newTestScheduler(store Store, sender Sender, now time.Time) *Scheduler {
	s := NewScheduler(store, sender, time.Minute, 3)
	s.now = func() time.Time { return now }
	s.sleep = func(time.Duration) {}
	return s
}

func TestTickDispatchesDueReminders(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	store := newFakeStore(
		ledger.Reminder{ID: 1, ChatID: "c1", Description: "Pagar luz", ScheduledAt: now.Add(-time.Minute)},
		ledger.Reminder{ID: 2, ChatID: "c2", Description: "Futuro", ScheduledAt: now.Add(time.Hour)},
		ledger.Reminder{ID: 3, ChatID: "c3", Description: "Ya enviado", ScheduledAt: now.Add(-time.Hour), IsSent: true},
	)
	sender := &fakeSender{}
	s := newTestScheduler(store, sender, now)

	if got := s.Tick(context.Background()); got != 1 {
		t.Fatalf("Tick() sent = %d, want 1", got)
	}
	if !store.get(1).IsSent {
		t.Errorf("reminder 1 not marked sent")
	}
	if store.get(2).IsSent {
		t.Errorf("future reminder 2 marked sent")
	}
	if sender.count("c3") != 0 {
		t.Errorf("already-sent reminder 3 dispatched again")
	}
}

func TestTickTwiceDoesNotResend(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	store := newFakeStore(ledger.Reminder{ID: 1, ChatID: "c1", ScheduledAt: now})
	sender := &fakeSender{}
	s := newTestScheduler(store, sender, now)

	s.Tick(context.Background())
	s.Tick(context.Background())

	if got := sender.count("c1"); got != 1 {
		t.Errorf("reminder dispatched %d times, want 1", got)
	}
}

func TestConcurrentTicksShareOneRun(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	store := newFakeStore(ledger.Reminder{ID: 1, ChatID: "c1", ScheduledAt: now})
	sender := &fakeSender{block: make(chan struct{})}
	s := newTestScheduler(store, sender, now)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Tick(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(sender.block)
	wg.Wait()

	if got := sender.count("c1"); got != 1 {
		t.Errorf("reminder dispatched %d times, want 1", got)
	}
}

func TestFailureIsIsolatedAndCapped(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	store := newFakeStore(
		ledger.Reminder{ID: 1, ChatID: "broken", ScheduledAt: now},
		ledger.Reminder{ID: 2, ChatID: "ok", ScheduledAt: now},
	)
	sender := &fakeSender{failFor: map[string]bool{"broken": true}}
	s := newTestScheduler(store, sender, now)

	if got := s.Tick(context.Background()); got != 1 {
		t.Fatalf("Tick() sent = %d, want 1", got)
	}
	if r := store.get(1); r.IsSent || r.Attempts != 1 {
		t.Errorf("failed reminder = %+v, want unsent with 1 attempt", r)
	}
	if !store.get(2).IsSent {
		t.Errorf("healthy reminder was blocked by the failing one")
	}

	s.Tick(context.Background())
	s.Tick(context.Background())
	s.Tick(context.Background())
	if r := store.get(1); r.Attempts != 3 {
		t.Errorf("attempts = %d, want capped at 3", r.Attempts)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewScheduler(newFakeStore(), &fakeSender{}, time.Hour, 3)
	s.Start()
	s.Stop()
	s.Stop()
}
