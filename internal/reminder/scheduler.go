package reminder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/susu3304/finbot/internal/ledger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Store is the slice of persistence the scheduler needs.
type Store interface {
	DueReminders(ctx context.Context, now time.Time, maxAttempts int) ([]ledger.Reminder, error)
	// MarkReminderSent reports true only for the caller that flipped is_sent.
	MarkReminderSent(ctx context.Context, id int64, sentAt time.Time) (bool, error)
	RecordReminderFailure(ctx context.Context, id int64) (int, error)
}

// Sender delivers a reminder notification to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID, text string) error
}

// Scheduler periodically dispatches due reminders.
type Scheduler struct {
	store       Store
	sender      Sender
	interval    time.Duration
	maxAttempts int
	parallelism int
	now         func() time.Time
	sleep       func(time.Duration)

	flight   singleflight.Group
	stopChan chan struct{}
	stopOnce sync.Once
	ticker   *time.Ticker
	wg       sync.WaitGroup
}

func NewScheduler(store Store, sender Sender, interval time.Duration, maxAttempts int) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		store:       store,
		sender:      sender,
		interval:    interval,
		maxAttempts: maxAttempts,
		parallelism: 4,
		now:         time.Now,
		sleep:       time.Sleep,
		stopChan:    make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	if s == nil {
		return
	}
	s.ticker = time.NewTicker(s.interval)
	s.wg.Add(1)
	go s.loop()
}

func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopChan)
		if s.ticker != nil {
			s.ticker.Stop()
		}
	})
	s.wg.Wait()
}

func (s *Scheduler) loop() {
	defer s.wg.Done()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stopChan
		cancel()
	}()

	for {
		select {
		case <-s.ticker.C:
			s.Tick(ctx)
		case <-s.stopChan:
			return
		}
	}
}

// Tick dispatches every due reminder once. Concurrent calls share a single run.
func (s *Scheduler) Tick(ctx context.Context) int {
	v, _, _ := s.flight.Do("tick", func() (interface{}, error) {
		return s.tick(ctx), nil
	})
	return v.(int)
}

func (s *Scheduler) tick(ctx context.Context) int {
	now := s.now()
	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	due, err := s.store.DueReminders(loadCtx, now, s.maxAttempts)
	cancel()
	if err != nil {
		log.Printf("reminder: failed to load due reminders: %v", err)
		return 0
	}

	var (
		mu   sync.Mutex
		sent int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, r := range due {
		r := r
		g.Go(func() error {
			if s.dispatch(gctx, r, now) {
				mu.Lock()
				sent++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return sent
}

func (s *Scheduler) dispatch(ctx context.Context, r ledger.Reminder, now time.Time) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("reminder: panic while dispatching reminder %d: %v", r.ID, p)
			ok = false
		}
	}()

	if err := s.sendWithRetry(ctx, r.ChatID, FormatNotification(r)); err != nil {
		log.Printf("reminder: failed to send reminder %d to chat %s: %v", r.ID, r.ChatID, err)
		failCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		attempts, ferr := s.store.RecordReminderFailure(failCtx, r.ID)
		if ferr != nil {
			log.Printf("reminder: failed to record failure for reminder %d: %v", r.ID, ferr)
			return false
		}
		if s.maxAttempts > 0 && attempts >= s.maxAttempts {
			log.Printf("reminder: giving up on reminder %d after %d attempts", r.ID, attempts)
		}
		return false
	}

	markCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	won, err := s.store.MarkReminderSent(markCtx, r.ID, now)
	if err != nil {
		log.Printf("reminder: failed to mark reminder %d sent: %v", r.ID, err)
		return true
	}
	if !won {
		log.Printf("reminder: reminder %d was already marked sent", r.ID)
	}
	return true
}

func (s *Scheduler) sendWithRetry(ctx context.Context, chatID, content string) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		err := s.sender.SendText(sendCtx, chatID, content)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) {
			return err
		}
		s.sleep(time.Duration(300+rand.Intn(500)) * time.Millisecond)
	}
	return lastErr
}

func isTemporaryOrTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// FormatNotification renders the chat message for a due reminder.
func FormatNotification(r ledger.Reminder) string {
	return fmt.Sprintf("⏰ Recordatorio: %s", r.Description)
}
