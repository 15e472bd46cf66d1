package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/history"
	"trivia-session-service/internal/infra/memory"
	"trivia-session-service/internal/snapshot"
	"trivia-session-service/internal/trivia"
)

type stubSource struct {
	err   error
	calls int
}

func (s *stubSource) Fetch(_ context.Context, req trivia.Request) ([]domain.Question, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	questions := make([]domain.Question, req.Amount)
	for i := range questions {
		questions[i] = domain.Question{
			Prompt:        fmt.Sprintf("question %d", i),
			CorrectAnswer: "right",
			Answers:       []string{"right", "wrong"},
			Category:      "General",
			Difficulty:    domain.DifficultyEasy,
			Points:        10,
		}
	}
	return questions, nil
}

type testHarness struct {
	service *SessionService
	store   *memory.KVStore
	repo    *snapshot.Repo
	archive *history.Archive
	board   *memory.Leaderboard
	source  *stubSource
}

func newHarness(t *testing.T, cfg Config) *testHarness {
	t.Helper()
	store := memory.NewKVStore()
	repo := snapshot.NewRepo(store)
	saver := snapshot.NewSaver(repo, 10*time.Millisecond)
	archive := history.NewArchive(store)
	board := memory.NewLeaderboard()
	source := &stubSource{}

	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Hour // keep wall-clock ticks out of tests
	}
	service := NewSessionService(Deps{
		Source:    source,
		Snapshots: repo,
		Saver:     saver,
		Archive:   archive,
		Board:     board,
	}, cfg)
	t.Cleanup(service.Shutdown)
	return &testHarness{service: service, store: store, repo: repo, archive: archive, board: board, source: source}
}

func TestFullQuizScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{TotalTime: 120})

	update, err := h.service.StartQuiz(ctx, "alice", trivia.Request{Amount: 5})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(update.State.Questions) != 5 || update.State.Loading {
		t.Fatalf("expected 5 questions loaded, got %+v", update.Stats)
	}

	// Answer all five, three correct. Zero feedback delay advances and
	// completes synchronously.
	answers := []string{"right", "right", "wrong", "right", "wrong"}
	for _, a := range answers {
		if _, _, err := h.service.Answer(ctx, "alice", a); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}

	update, err = h.service.Update("alice")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	stats := update.Stats
	if stats.Total != 5 || stats.Answered != 5 || stats.Correct != 3 || stats.Wrong != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Score != 60.0 || stats.Remaining != 0 {
		t.Fatalf("expected score 60.0 with none remaining, got %+v", stats)
	}
	if !update.State.Completed {
		t.Fatalf("expected auto-completion after the last answer")
	}

	// Completion archives and credits the leaderboard.
	records, summary, _ := h.service.History(ctx, "alice")
	if len(records) != 1 || records[0].Score != 60.0 {
		t.Fatalf("expected one archived record at 60.0, got %+v", records)
	}
	if summary.Quizzes != 1 {
		t.Fatalf("expected summary over one quiz, got %+v", summary)
	}
	top, _ := h.service.Leaderboard(ctx, 10)
	if len(top) != 1 || top[0].Points != 30 {
		t.Fatalf("expected 30 points on the board, got %+v", top)
	}

	// Completion clears the snapshot.
	if _, ok := h.repo.Load(ctx, "alice"); ok {
		t.Fatalf("expected snapshot cleared on completion")
	}
}

func TestAnswerReplacesOnRepeat(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{TotalTime: 120, FeedbackDelay: time.Hour})

	if _, err := h.service.StartQuiz(ctx, "alice", trivia.Request{Amount: 3}); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, _, _ = h.service.Answer(ctx, "alice", "wrong")
	update, record, err := h.service.Answer(ctx, "alice", "right")
	if err != nil {
		t.Fatalf("re-answer: %v", err)
	}
	if !record.IsCorrect {
		t.Fatalf("expected corrected answer, got %+v", record)
	}
	if update.Stats.Answered != 1 || update.Stats.Correct != 1 {
		t.Fatalf("expected single corrected record, got %+v", update.Stats)
	}
}

func TestFetchErrorSurfacesAndIsRetryable(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{TotalTime: 120})
	h.source.err = domain.ErrNoQuestions

	_, err := h.service.StartQuiz(ctx, "alice", trivia.Request{Amount: 50})
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	update, _ := h.service.Update("alice")
	if update.State.Err == "" || update.State.Loading || update.State.Completed {
		t.Fatalf("expected retryable error state, got %+v", update.State)
	}

	// Retry succeeds and clears the error.
	h.source.err = nil
	update, err = h.service.StartQuiz(ctx, "alice", trivia.Request{Amount: 3})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if update.State.Err != "" || len(update.State.Questions) != 3 {
		t.Fatalf("expected recovered session, got %+v", update.State)
	}
}

func TestAnswerWithoutQuizFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{TotalTime: 120})

	if _, _, err := h.service.Answer(ctx, "ghost", "x"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	h.service.getOrCreate("alice")
	if _, _, err := h.service.Answer(ctx, "alice", "x"); !errors.Is(err, domain.ErrNoActiveQuiz) {
		t.Fatalf("expected ErrNoActiveQuiz, got %v", err)
	}
}

func TestRestartKeepsQuestionSet(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{TotalTime: 120, FeedbackDelay: time.Hour})

	_, _ = h.service.StartQuiz(ctx, "alice", trivia.Request{Amount: 3})
	_, _, _ = h.service.Answer(ctx, "alice", "right")

	update, err := h.service.Restart(ctx, "alice")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if len(update.State.Questions) != 3 || update.Stats.Answered != 0 {
		t.Fatalf("expected same questions with progress reset, got %+v", update.Stats)
	}
	if h.source.calls != 1 {
		t.Fatalf("restart must not refetch, source calls=%d", h.source.calls)
	}
}

func TestResumeFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{TotalTime: 120})

	// A previous run left a snapshot behind.
	questions := (&stubSource{}).mustQuestions(3)
	saved := domain.Snapshot{
		Questions: questions,
		Answers: []domain.AnswerRecord{
			{QuestionIndex: 0, Selected: "right", CorrectAnswer: "right", IsCorrect: true},
			{QuestionIndex: 1, Selected: "wrong", CorrectAnswer: "right"},
		},
		CurrentIndex: 1,
		TimeLeft:     64,
		Amount:       3,
		SavedAt:      time.Now(),
	}
	if err := h.repo.Save(ctx, "alice", saved); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	snap, offered := h.service.OfferResume(ctx, "alice")
	if !offered || len(snap.Answers) != 2 {
		t.Fatalf("expected resume offer with 2 answers, got offered=%v %+v", offered, snap)
	}

	// Only one offer per load.
	if _, again := h.service.OfferResume(ctx, "alice"); again {
		t.Fatalf("expected a single resume offer per session")
	}

	update, err := h.service.AcceptResume(ctx, "alice")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if update.Stats.Answered != 2 || update.State.CurrentIndex != 1 {
		t.Fatalf("expected restored progress, got %+v", update.Stats)
	}
	if update.State.TimeLeft != 64 {
		t.Fatalf("expected timer restored to 64, got %d", update.State.TimeLeft)
	}

	if _, err := h.service.AcceptResume(ctx, "alice"); !errors.Is(err, domain.ErrNoResumeOffer) {
		t.Fatalf("expected ErrNoResumeOffer on second accept, got %v", err)
	}
}

func TestDeclineResumeDeletesSnapshot(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{TotalTime: 120})

	saved := domain.Snapshot{
		Questions: (&stubSource{}).mustQuestions(2),
		TimeLeft:  30,
		SavedAt:   time.Now(),
	}
	_ = h.repo.Save(ctx, "alice", saved)

	if _, offered := h.service.OfferResume(ctx, "alice"); !offered {
		t.Fatalf("expected offer")
	}
	if err := h.service.DeclineResume(ctx, "alice"); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if _, ok := h.repo.Load(ctx, "alice"); ok {
		t.Fatalf("expected snapshot deleted on decline")
	}

	update, _ := h.service.Update("alice")
	if len(update.State.Questions) != 0 {
		t.Fatalf("expected session left empty after decline")
	}
}

func TestTimeoutCompletesSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{TotalTime: 2, TickInterval: 5 * time.Millisecond, FeedbackDelay: time.Hour})

	_, err := h.service.StartQuiz(ctx, "alice", trivia.Request{Amount: 2})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_, _, _ = h.service.Answer(ctx, "alice", "right")

	deadline := time.Now().Add(2 * time.Second)
	for {
		update, _ := h.service.Update("alice")
		if update.State.Completed {
			if update.State.TimeLeft != 0 {
				t.Fatalf("expected time exhausted, got %d", update.State.TimeLeft)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session never completed on timeout")
		}
		time.Sleep(time.Millisecond)
	}

	records, _, _ := h.service.History(ctx, "alice")
	if len(records) != 1 {
		t.Fatalf("expected timed-out session archived, got %d records", len(records))
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{TotalTime: 120, FeedbackDelay: time.Hour})

	_, _ = h.service.StartQuiz(ctx, "alice", trivia.Request{Amount: 2})
	ch, cancel, err := h.service.Subscribe("alice")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	<-ch // initial snapshot

	_, _, _ = h.service.Answer(ctx, "alice", "right")

	select {
	case update := <-ch:
		if update.Stats.Answered != 1 {
			t.Fatalf("expected answered update, got %+v", update.Stats)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no update received")
	}
}

func TestSnapshotWrittenWhileActive(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{TotalTime: 120, FeedbackDelay: time.Hour})

	_, _ = h.service.StartQuiz(ctx, "alice", trivia.Request{Amount: 3})
	_, _, _ = h.service.Answer(ctx, "alice", "right")

	deadline := time.Now().Add(2 * time.Second)
	for {
		if snap, ok := h.repo.Load(ctx, "alice"); ok {
			if len(snap.Answers) != 1 {
				t.Fatalf("expected one answer snapshotted, got %d", len(snap.Answers))
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("snapshot never written")
		}
		time.Sleep(time.Millisecond)
	}
}

// mustQuestions builds a deterministic question set for snapshot seeding.
func (s *stubSource) mustQuestions(n int) []domain.Question {
	questions, _ := s.Fetch(context.Background(), trivia.Request{Amount: n})
	return questions
}
