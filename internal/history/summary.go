package history

import (
	"sort"
	"time"

	"trivia-session-service/internal/domain"
)

// Summary aggregates statistics across a user's archived sessions.
type Summary struct {
	Quizzes        int     `json:"quizzes"`
	AverageScore   float64 `json:"averageScore"`
	BestScore      float64 `json:"bestScore"`
	Accuracy       float64 `json:"accuracy"`
	Streak         int     `json:"streak"`
	TotalCorrect   int     `json:"totalCorrect"`
	TotalQuestions int     `json:"totalQuestions"`
}

// Summarize walks the archived records: average score across records,
// accuracy as total correct over total questions, and the current streak of
// consecutive calendar days with at least one record starting today.
func Summarize(records []domain.HistoryRecord, today time.Time) Summary {
	sum := Summary{Quizzes: len(records)}
	if len(records) == 0 {
		return sum
	}

	var scoreTotal float64
	for _, rec := range records {
		scoreTotal += rec.Score
		if rec.Score > sum.BestScore {
			sum.BestScore = rec.Score
		}
		sum.TotalCorrect += rec.Correct
		sum.TotalQuestions += rec.Total
	}
	sum.AverageScore = scoreTotal / float64(len(records))
	if sum.TotalQuestions > 0 {
		sum.Accuracy = float64(sum.TotalCorrect) / float64(sum.TotalQuestions)
	}
	sum.Streak = streak(records, today)
	return sum
}

// streak counts consecutive calendar days (today, yesterday, ...) with at
// least one record, stopping at the first gap.
func streak(records []domain.HistoryRecord, today time.Time) int {
	if len(records) == 0 {
		return 0
	}

	days := make([]time.Time, 0, len(records))
	seen := make(map[time.Time]struct{})
	for _, rec := range records {
		day := truncateToDay(rec.Timestamp)
		if _, ok := seen[day]; !ok {
			seen[day] = struct{}{}
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	count := 0
	expected := truncateToDay(today)
	for _, day := range days {
		if !day.Equal(expected) {
			break
		}
		count++
		expected = expected.AddDate(0, 0, -1)
	}
	return count
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
