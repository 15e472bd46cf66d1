package session

import "trivia-session-service/internal/domain"

// Action is the closed set of session state transitions. Each concrete action
// carries a strongly typed payload; the reducer matches on the concrete type
// and treats anything outside this set as a no-op.
type Action interface {
	isAction()
}

// SetQuestions replaces the question list with a freshly fetched set, stores
// the fetch configuration, clears the loading flag and stamps the session
// start time. It is dispatched only on a fresh or reset state.
type SetQuestions struct {
	Questions  []domain.Question
	Category   string
	Difficulty string
	Amount     int
}

// SetLoading toggles the loading flag. Entering the loading state clears any
// previous error.
type SetLoading struct {
	Loading bool
}

// SetError records a fetch failure and clears the loading flag. Questions and
// progress are left untouched.
type SetError struct {
	Message string
}

// AnswerQuestion records an answer. A record sharing a question index with an
// existing one replaces it in place; correctness is supplied by the caller.
type AnswerQuestion struct {
	Record domain.AnswerRecord
}

// NextQuestion advances the current index, clamped to the last question.
type NextQuestion struct{}

// SetTime overwrites the remaining seconds (timer tick and snapshot restore).
type SetTime struct {
	Seconds int
}

// CompleteQuiz finalizes the session. Only RestartQuiz or ClearQuiz exit the
// completed state.
type CompleteQuiz struct{}

// RestartQuiz resets progress while keeping the loaded question set and the
// fetch configuration.
type RestartQuiz struct{}

// ClearQuiz resets everything back to the idle initial state.
type ClearQuiz struct{}

func (SetQuestions) isAction()   {}
func (SetLoading) isAction()     {}
func (SetError) isAction()       {}
func (AnswerQuestion) isAction() {}
func (NextQuestion) isAction()   {}
func (SetTime) isAction()        {}
func (CompleteQuiz) isAction()   {}
func (RestartQuiz) isAction()    {}
func (ClearQuiz) isAction()      {}
