package snapshot

import (
	"context"
	"log"
	"sync"
	"time"

	"trivia-session-service/internal/session"
)

// DefaultQuietPeriod is how long the saver waits for state churn to settle
// before writing. Timer ticks mark the state dirty every second; coalescing
// them keeps write amplification down.
const DefaultQuietPeriod = time.Second

// Saver is a mark-dirty, flush-after-quiet-period scheduler over the repo.
// Callers hand it every state change; only eligible states are persisted, and
// only the latest state within the quiet window is written. The quiet window
// is per user so one session's churn cannot postpone another's write.
type Saver struct {
	repo  *Repo
	quiet time.Duration
	now   func() time.Time

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]session.State
	closed  bool
}

func NewSaver(repo *Repo, quiet time.Duration) *Saver {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Saver{
		repo:    repo,
		quiet:   quiet,
		now:     time.Now,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]session.State),
	}
}

// Mark records the latest state for a user and (re)starts that user's quiet
// window. Ineligible states clear any pending write for the user instead.
func (s *Saver) Mark(user string, st session.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if t, ok := s.timers[user]; ok {
		t.Stop()
		delete(s.timers, user)
	}
	if !Eligible(st) {
		delete(s.pending, user)
		return
	}
	s.pending[user] = st
	s.timers[user] = time.AfterFunc(s.quiet, func() { s.flushUser(user) })
}

// Flush writes all pending snapshots immediately (shutdown path).
func (s *Saver) Flush() {
	s.flush()
}

// Close stops the saver after a final flush.
func (s *Saver) Close() {
	s.mu.Lock()
	for user, t := range s.timers {
		t.Stop()
		delete(s.timers, user)
	}
	s.closed = true
	s.mu.Unlock()
	s.flush()
}

func (s *Saver) flushUser(user string) {
	s.mu.Lock()
	st, ok := s.pending[user]
	delete(s.pending, user)
	delete(s.timers, user)
	now := s.now()
	s.mu.Unlock()

	if !ok || !Eligible(st) {
		return
	}
	if err := s.repo.Save(context.Background(), user, FromState(st, now)); err != nil {
		log.Printf("snapshot save for %s: %v", user, err)
	}
}

func (s *Saver) flush() {
	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string]session.State)
	now := s.now()
	s.mu.Unlock()

	for user, st := range batch {
		if !Eligible(st) {
			continue
		}
		if err := s.repo.Save(context.Background(), user, FromState(st, now)); err != nil {
			log.Printf("snapshot save for %s: %v", user, err)
		}
	}
}
