package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/history"
	"trivia-session-service/internal/session"
	"trivia-session-service/internal/snapshot"
	"trivia-session-service/internal/trivia"

	"github.com/google/uuid"
)

// LeaderboardStore accumulates earned points per username.
type LeaderboardStore interface {
	Add(ctx context.Context, username string, points int) error
	Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error)
}

// Config tunes the session lifecycle.
type Config struct {
	// TotalTime is the countdown length in seconds.
	TotalTime int
	// DefaultAmount is the question count when a start request omits one.
	DefaultAmount int
	// FeedbackDelay is the pause between recording an answer and
	// auto-advancing (or auto-completing after the last answer). Zero or
	// negative advances synchronously, which tests rely on.
	FeedbackDelay time.Duration
	// TickInterval overrides the countdown tick for tests; zero means one
	// second.
	TickInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.TotalTime <= 0 {
		c.TotalTime = session.DefaultTotalTime
	}
	if c.DefaultAmount <= 0 {
		c.DefaultAmount = session.DefaultAmount
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	return c
}

// Deps wires the service's collaborators.
type Deps struct {
	Source    trivia.Source
	Snapshots *snapshot.Repo
	Saver     *snapshot.Saver
	Archive   *history.Archive
	Board     LeaderboardStore
}

// SessionService owns one quiz session per user and drives the state machine:
// fetch, answer, advance, complete, restart, resume.
type SessionService struct {
	deps  Deps
	cfg   Config
	now   func() time.Time
	newID func() string

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionService(deps Deps, cfg Config) *SessionService {
	return &SessionService{
		deps:     deps,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		newID:    uuid.NewString,
		sessions: make(map[string]*Session),
	}
}

// StartQuiz fetches a question set and begins a fresh session. A fetch
// started while another is in flight cancels and replaces it.
func (s *SessionService) StartQuiz(ctx context.Context, user string, req trivia.Request) (Update, error) {
	sess := s.getOrCreate(user)
	if req.Amount <= 0 {
		req.Amount = s.cfg.DefaultAmount
	}

	sess.dropResumeOffer()
	sess.cancelAdvance()
	sess.dispatch(session.SetLoading{Loading: true})

	questions, err := sess.fetcher.Fetch(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Superseded by a newer fetch; that fetch owns the state now.
			return sess.update(), err
		}
		return sess.dispatch(session.SetError{Message: err.Error()}), err
	}

	update := sess.dispatch(session.SetQuestions{
		Questions:  questions,
		Category:   req.Category,
		Difficulty: req.Difficulty,
		Amount:     req.Amount,
	})
	_ = s.deps.Snapshots.Delete(ctx, user)
	sess.resetCountdown(s.cfg.TotalTime, true)
	return update, nil
}

// Answer records the user's selection for the current question, then
// auto-advances after the feedback delay; the last answer auto-completes the
// session instead.
func (s *SessionService) Answer(ctx context.Context, user, selected string) (Update, domain.AnswerRecord, error) {
	sess, ok := s.get(user)
	if !ok {
		return Update{}, domain.AnswerRecord{}, domain.ErrSessionNotFound
	}

	sess.mu.RLock()
	st := sess.state
	sess.mu.RUnlock()

	if len(st.Questions) == 0 || st.Loading {
		return sess.update(), domain.AnswerRecord{}, domain.ErrNoActiveQuiz
	}
	if st.Completed {
		return sess.update(), domain.AnswerRecord{}, domain.ErrQuizCompleted
	}

	question, ok := st.CurrentQuestion()
	if !ok {
		return sess.update(), domain.AnswerRecord{}, domain.ErrNoActiveQuiz
	}

	record := domain.AnswerRecord{
		QuestionIndex: st.CurrentIndex,
		Selected:      selected,
		CorrectAnswer: question.CorrectAnswer,
		IsCorrect:     selected == question.CorrectAnswer,
		AnsweredAt:    s.now(),
	}
	update := sess.dispatch(session.AnswerQuestion{Record: record})

	stats := session.DeriveStats(update.State)
	last := stats.Answered == stats.Total
	sess.scheduleAdvance(s.cfg.FeedbackDelay, func() {
		if last {
			_, _ = s.Complete(context.Background(), user)
		} else {
			_, _ = s.Next(user)
		}
	})
	return update, record, nil
}

// Next advances to the following question, clamped at the last one.
func (s *SessionService) Next(user string) (Update, error) {
	sess, ok := s.get(user)
	if !ok {
		return Update{}, domain.ErrSessionNotFound
	}
	return sess.dispatch(session.NextQuestion{}), nil
}

// Complete finalizes the session: archive the result, credit the
// leaderboard, drop the snapshot. Idempotent.
func (s *SessionService) Complete(ctx context.Context, user string) (Update, error) {
	sess, ok := s.get(user)
	if !ok {
		return Update{}, domain.ErrSessionNotFound
	}

	sess.cancelAdvance()
	sess.countdown.Stop()

	sess.mu.Lock()
	if sess.state.Completed || len(sess.state.Questions) == 0 {
		update := sess.updateLocked()
		sess.mu.Unlock()
		return update, nil
	}
	sess.state = sess.reducer.Reduce(sess.state, session.CompleteQuiz{})
	st := sess.state
	update := sess.broadcastLocked()
	sess.mu.Unlock()

	s.deps.Saver.Mark(user, st) // ineligible now; clears any pending write
	_ = s.deps.Snapshots.Delete(ctx, user)
	if err := s.deps.Archive.Append(ctx, user, history.BuildRecord(s.newID(), st)); err != nil {
		return update, err
	}
	if points := session.EarnedPoints(st); points > 0 {
		if err := s.deps.Board.Add(ctx, user, points); err != nil {
			return update, err
		}
	}
	return update, nil
}

// Restart keeps the loaded question set and configuration but resets all
// progress for a fresh attempt.
func (s *SessionService) Restart(ctx context.Context, user string) (Update, error) {
	sess, ok := s.get(user)
	if !ok {
		return Update{}, domain.ErrSessionNotFound
	}
	sess.cancelAdvance()
	_ = s.deps.Snapshots.Delete(ctx, user)
	update := sess.dispatch(session.RestartQuiz{})
	sess.resetCountdown(s.cfg.TotalTime, len(update.State.Questions) > 0)
	return update, nil
}

// Clear resets the session to the idle initial state.
func (s *SessionService) Clear(ctx context.Context, user string) (Update, error) {
	sess, ok := s.get(user)
	if !ok {
		return Update{}, domain.ErrSessionNotFound
	}
	sess.cancelAdvance()
	sess.countdown.Stop()
	sess.dropResumeOffer()
	_ = s.deps.Snapshots.Delete(ctx, user)
	return sess.dispatch(session.ClearQuiz{}), nil
}

// OfferResume checks for a saved snapshot when the session is still fresh.
// It offers at most once per session so no two resume prompts can be shown
// concurrently.
func (s *SessionService) OfferResume(ctx context.Context, user string) (domain.Snapshot, bool) {
	sess := s.getOrCreate(user)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	st := sess.state
	if sess.resumeOffered || len(st.Questions) > 0 || st.Loading || st.Completed {
		return domain.Snapshot{}, false
	}
	snap, ok := s.deps.Snapshots.Load(ctx, user)
	if !ok {
		return domain.Snapshot{}, false
	}
	sess.resumeOffered = true
	sess.pendingResume = &snap
	return snap, true
}

// AcceptResume replays the offered snapshot into the session and restarts
// the countdown from the saved time.
func (s *SessionService) AcceptResume(_ context.Context, user string) (Update, error) {
	sess, ok := s.get(user)
	if !ok {
		return Update{}, domain.ErrSessionNotFound
	}

	sess.mu.Lock()
	if sess.pendingResume == nil {
		sess.mu.Unlock()
		return Update{}, domain.ErrNoResumeOffer
	}
	snap := *sess.pendingResume
	sess.pendingResume = nil
	sess.state = snapshot.Restore(sess.reducer, sess.state, snap)
	update := sess.broadcastLocked()
	sess.mu.Unlock()

	sess.resetCountdown(snap.TimeLeft, true)
	return update, nil
}

// DeclineResume deletes the offered snapshot and leaves the session empty.
func (s *SessionService) DeclineResume(ctx context.Context, user string) error {
	sess, ok := s.get(user)
	if !ok {
		return domain.ErrSessionNotFound
	}

	sess.mu.Lock()
	if sess.pendingResume == nil {
		sess.mu.Unlock()
		return domain.ErrNoResumeOffer
	}
	sess.pendingResume = nil
	sess.mu.Unlock()

	return s.deps.Snapshots.Delete(ctx, user)
}

// Update returns the current state without modifying it.
func (s *SessionService) Update(user string) (Update, error) {
	sess, ok := s.get(user)
	if !ok {
		return Update{}, domain.ErrSessionNotFound
	}
	return sess.update(), nil
}

// History returns the user's archived records with aggregates and badges.
func (s *SessionService) History(ctx context.Context, user string) ([]domain.HistoryRecord, history.Summary, []history.Achievement) {
	records := s.deps.Archive.List(ctx, user)
	summary := history.Summarize(records, s.now())
	return records, summary, history.Achievements(summary)
}

// Leaderboard returns the top n ranked users.
func (s *SessionService) Leaderboard(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	return s.deps.Board.Top(ctx, n)
}

// Subscribe returns a channel receiving session updates for a user. The
// caller must invoke the cancel function to avoid leaks.
func (s *SessionService) Subscribe(user string) (<-chan Update, func(), error) {
	sess, ok := s.get(user)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := sess.subscribe()
	return ch, cancel, nil
}

// AddTime grants bonus seconds to the running countdown.
func (s *SessionService) AddTime(user string, seconds int) (Update, error) {
	sess, ok := s.get(user)
	if !ok {
		return Update{}, domain.ErrSessionNotFound
	}
	sess.countdown.AddTime(seconds)
	return sess.dispatch(session.SetTime{Seconds: sess.countdown.TimeLeft()}), nil
}

// SubtractTime removes penalty seconds, flooring at zero.
func (s *SessionService) SubtractTime(user string, seconds int) (Update, error) {
	sess, ok := s.get(user)
	if !ok {
		return Update{}, domain.ErrSessionNotFound
	}
	sess.countdown.SubtractTime(seconds)
	return sess.dispatch(session.SetTime{Seconds: sess.countdown.TimeLeft()}), nil
}

// Shutdown stops every session's countdown and flushes pending snapshots.
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.cancelAdvance()
		sess.countdown.Stop()
		sess.fetcher.Abort()
	}
	s.mu.Unlock()
	s.deps.Saver.Close()
}

func (s *SessionService) get(user string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[user]
	return sess, ok
}

func (s *SessionService) getOrCreate(user string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[user]; ok {
		return sess
	}
	sess := newSession(user, s)
	s.sessions[user] = sess
	return sess
}
