package session

import (
	"time"

	"trivia-session-service/internal/domain"
)

// Default configuration applied by ClearQuiz and NewState.
const (
	DefaultTotalTime = 300
	DefaultAmount    = 10
)

// State is the authoritative representation of one quiz session. It is a
// value type: the reducer never mutates a State in place.
type State struct {
	Questions    []domain.Question     `json:"questions"`
	CurrentIndex int                   `json:"currentIndex"`
	Answers      []domain.AnswerRecord `json:"answers"`
	Loading      bool                  `json:"loading"`
	Err          string                `json:"error,omitempty"`
	Completed    bool                  `json:"completed"`
	TimeLeft     int                   `json:"timeLeft"`
	TotalTime    int                   `json:"totalTime"`
	StartedAt    time.Time             `json:"startedAt"`
	EndedAt      time.Time             `json:"endedAt"`
	Category     string                `json:"category"`
	Difficulty   string                `json:"difficulty"`
	Amount       int                   `json:"amount"`
}

// NewState returns the idle initial state. Non-positive arguments fall back
// to the package defaults.
func NewState(totalTime, amount int) State {
	if totalTime <= 0 {
		totalTime = DefaultTotalTime
	}
	if amount <= 0 {
		amount = DefaultAmount
	}
	return State{
		TimeLeft:  totalTime,
		TotalTime: totalTime,
		Amount:    amount,
	}
}

// Active reports whether the session has a question set in play.
func (s State) Active() bool {
	return len(s.Questions) > 0 && !s.Completed && !s.Loading
}

// CurrentQuestion returns the question at the current index.
func (s State) CurrentQuestion() (domain.Question, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return domain.Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// AnswerFor returns the recorded answer for a question index, if any.
func (s State) AnswerFor(index int) (domain.AnswerRecord, bool) {
	for _, rec := range s.Answers {
		if rec.QuestionIndex == index {
			return rec, true
		}
	}
	return domain.AnswerRecord{}, false
}
