package app

import (
	"context"
	"sync"
	"time"

	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/session"
	"trivia-session-service/internal/timer"
	"trivia-session-service/internal/trivia"
)

// Update is the view pushed to subscribers after every transition.
type Update struct {
	State       session.State `json:"state"`
	Stats       session.Stats `json:"stats"`
	TimerStatus timer.Status  `json:"timerStatus"`
}

// Session wraps one user's state machine together with its countdown,
// fetcher and subscribers.
type Session struct {
	user    string
	svc     *SessionService
	reducer session.Reducer
	fetcher *trivia.Fetcher

	countdown *timer.Countdown

	mu            sync.RWMutex
	state         session.State
	resumeOffered bool
	pendingResume *domain.Snapshot
	advance       *time.Timer
	subscribers   map[chan Update]struct{}
}

func newSession(user string, svc *SessionService) *Session {
	sess := &Session{
		user:        user,
		svc:         svc,
		reducer:     session.Reducer{Now: svc.now},
		fetcher:     trivia.NewFetcher(svc.deps.Source),
		state:       session.NewState(svc.cfg.TotalTime, svc.cfg.DefaultAmount),
		subscribers: make(map[chan Update]struct{}),
	}
	sess.countdown = timer.NewWithInterval(svc.cfg.TotalTime, svc.cfg.TickInterval)
	sess.countdown.OnTick(func(remaining int) {
		sess.dispatch(session.SetTime{Seconds: remaining})
	})
	sess.countdown.OnExpire(func() {
		_, _ = svc.Complete(context.Background(), user)
	})
	return sess
}

// dispatch applies an action, marks the state for snapshotting and notifies
// subscribers.
func (s *Session) dispatch(action session.Action) Update {
	s.mu.Lock()
	s.state = s.reducer.Reduce(s.state, action)
	update := s.broadcastLocked()
	s.mu.Unlock()

	s.svc.deps.Saver.Mark(s.user, update.State)
	return update
}

func (s *Session) update() Update {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updateLocked()
}

func (s *Session) updateLocked() Update {
	return Update{
		State:       s.state,
		Stats:       session.DeriveStats(s.state),
		TimerStatus: timer.StatusFor(s.state.TimeLeft),
	}
}

// resetCountdown re-arms the countdown with a new duration. At most one
// ticking interval exists per session; the countdown replaces its clock
// source atomically.
func (s *Session) resetCountdown(seconds int, run bool) {
	s.countdown.Reset(seconds)
	if run && seconds > 0 {
		s.countdown.Start()
	}
}

// scheduleAdvance runs fn after the feedback delay, replacing any pending
// advance. Non-positive delays run synchronously.
func (s *Session) scheduleAdvance(delay time.Duration, fn func()) {
	s.cancelAdvance()
	if delay <= 0 {
		fn()
		return
	}
	s.mu.Lock()
	s.advance = time.AfterFunc(delay, fn)
	s.mu.Unlock()
}

func (s *Session) cancelAdvance() {
	s.mu.Lock()
	if s.advance != nil {
		s.advance.Stop()
		s.advance = nil
	}
	s.mu.Unlock()
}

func (s *Session) dropResumeOffer() {
	s.mu.Lock()
	s.pendingResume = nil
	s.mu.Unlock()
}

func (s *Session) subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.updateLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// broadcastLocked fans the current update out to subscribers, dropping the
// stale buffered update when a slow subscriber would block. Callers hold
// s.mu.
func (s *Session) broadcastLocked() Update {
	update := s.updateLocked()
	for ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
	return update
}
