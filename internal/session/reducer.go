package session

import (
	"time"

	"trivia-session-service/internal/domain"
)

// Reducer applies actions to session states. States are treated as immutable
// values: every transition returns a copy. The zero value uses the wall
// clock; tests inject Now for deterministic timestamps.
type Reducer struct {
	Now func() time.Time
}

func (r Reducer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Reduce maps (state, action) to the next state. Unknown action values leave
// the state unchanged; the action vocabulary is closed, so this is a safety
// net rather than a dispatch mechanism.
func (r Reducer) Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetQuestions:
		s.Questions = a.Questions
		s.Category = a.Category
		s.Difficulty = a.Difficulty
		if a.Amount > 0 {
			s.Amount = a.Amount
		}
		s.Loading = false
		s.Err = ""
		s.StartedAt = r.now()
		return s

	case SetLoading:
		s.Loading = a.Loading
		if a.Loading {
			s.Err = ""
		}
		return s

	case SetError:
		s.Err = a.Message
		s.Loading = false
		return s

	case AnswerQuestion:
		if s.Completed {
			return s
		}
		rec := a.Record
		if rec.QuestionIndex < 0 || rec.QuestionIndex >= len(s.Questions) {
			return s
		}
		answers := make([]domain.AnswerRecord, len(s.Answers))
		copy(answers, s.Answers)
		replaced := false
		for i := range answers {
			if answers[i].QuestionIndex == rec.QuestionIndex {
				answers[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			answers = append(answers, rec)
		}
		s.Answers = answers
		return s

	case NextQuestion:
		if s.Completed {
			return s
		}
		next := s.CurrentIndex + 1
		if max := len(s.Questions) - 1; next > max {
			next = max
		}
		if next < 0 {
			next = 0
		}
		s.CurrentIndex = next
		return s

	case SetTime:
		if s.Completed {
			return s
		}
		seconds := a.Seconds
		if seconds < 0 {
			seconds = 0
		}
		s.TimeLeft = seconds
		return s

	case CompleteQuiz:
		if s.Completed {
			return s
		}
		s.Completed = true
		s.EndedAt = r.now()
		return s

	case RestartQuiz:
		questions := s.Questions
		fresh := NewState(s.TotalTime, s.Amount)
		fresh.Questions = questions
		fresh.Category = s.Category
		fresh.Difficulty = s.Difficulty
		fresh.StartedAt = r.now()
		return fresh

	case ClearQuiz:
		return NewState(DefaultTotalTime, DefaultAmount)

	default:
		return s
	}
}
