package history

// Achievement is a badge derived from the history summary. Earned flags are
// recomputed on demand, never stored.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
}

// Achievements derives the badge list from a summary.
func Achievements(sum Summary) []Achievement {
	return []Achievement{
		{
			ID:          "first-quiz",
			Name:        "Getting Started",
			Description: "Complete your first quiz",
			Earned:      sum.Quizzes >= 1,
		},
		{
			ID:          "ten-quizzes",
			Name:        "Regular",
			Description: "Complete ten quizzes",
			Earned:      sum.Quizzes >= 10,
		},
		{
			ID:          "perfect-score",
			Name:        "Flawless",
			Description: "Finish a quiz with a perfect score",
			Earned:      sum.BestScore >= 100,
		},
		{
			ID:          "streak-3",
			Name:        "Warming Up",
			Description: "Play three days in a row",
			Earned:      sum.Streak >= 3,
		},
		{
			ID:          "streak-7",
			Name:        "Committed",
			Description: "Play seven days in a row",
			Earned:      sum.Streak >= 7,
		},
		{
			ID:          "hundred-questions",
			Name:        "Marathon",
			Description: "Answer one hundred questions",
			Earned:      sum.TotalQuestions >= 100,
		},
		{
			ID:          "sharpshooter",
			Name:        "Sharpshooter",
			Description: "Keep accuracy at 90% over at least twenty questions",
			Earned:      sum.Accuracy >= 0.9 && sum.TotalQuestions >= 20,
		},
	}
}
