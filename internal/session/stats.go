package session

import "math"

// Stats is the per-session derived view. It is recomputed on demand and never
// persisted.
type Stats struct {
	Total     int     `json:"total"`
	Answered  int     `json:"answered"`
	Correct   int     `json:"correct"`
	Wrong     int     `json:"wrong"`
	Score     float64 `json:"score"`
	Remaining int     `json:"remaining"`
	Progress  float64 `json:"progress"`
}

// DeriveStats computes counts, the one-decimal score percentage and progress
// from a session state. An empty question set yields all zeroes so there is
// no division by zero.
func DeriveStats(s State) Stats {
	total := len(s.Questions)
	answered := len(s.Answers)
	correct := 0
	for _, rec := range s.Answers {
		if rec.IsCorrect {
			correct++
		}
	}

	stats := Stats{
		Total:     total,
		Answered:  answered,
		Correct:   correct,
		Wrong:     answered - correct,
		Remaining: total - answered,
	}
	if total > 0 {
		stats.Score = math.Round(float64(correct)/float64(total)*1000) / 10
		stats.Progress = float64(s.CurrentIndex+1) / float64(total) * 100
	}
	return stats
}

// EarnedPoints sums the point values of correctly answered questions.
func EarnedPoints(s State) int {
	points := 0
	for _, rec := range s.Answers {
		if !rec.IsCorrect {
			continue
		}
		if rec.QuestionIndex >= 0 && rec.QuestionIndex < len(s.Questions) {
			points += s.Questions[rec.QuestionIndex].Points
		}
	}
	return points
}
