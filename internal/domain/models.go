package domain

import "time"

// Difficulty labels as delivered by the trivia API.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// PointsFor maps a difficulty label to its point value. Unknown labels score
// as easy.
func PointsFor(difficulty string) int {
	switch difficulty {
	case DifficultyHard:
		return 30
	case DifficultyMedium:
		return 20
	default:
		return 10
	}
}

// Question is a single trivia question within a session. It has no globally
// stable ID; its identity is the ordinal index in the session's question list.
// Answers holds the combined option list, shuffled once at fetch time.
type Question struct {
	Prompt           string   `json:"prompt"`
	CorrectAnswer    string   `json:"correctAnswer"`
	IncorrectAnswers []string `json:"incorrectAnswers"`
	Answers          []string `json:"answers"`
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
	Points           int      `json:"points"`
}

// AnswerRecord captures one user answer. The correct answer is snapshotted at
// answer time so history stays readable after the question set is gone.
type AnswerRecord struct {
	QuestionIndex int       `json:"questionIndex"`
	Selected      string    `json:"selected"`
	CorrectAnswer string    `json:"correctAnswer"`
	IsCorrect     bool      `json:"isCorrect"`
	AnsweredAt    time.Time `json:"answeredAt"`
}

// Snapshot is the persisted subset of an in-progress session, written to the
// key-value store so a session survives a restart.
type Snapshot struct {
	Questions    []Question     `json:"questions"`
	Answers      []AnswerRecord `json:"answers"`
	CurrentIndex int            `json:"currentIndex"`
	TimeLeft     int            `json:"timeLeft"`
	Category     string         `json:"category"`
	Difficulty   string         `json:"difficulty"`
	Amount       int            `json:"amount"`
	SavedAt      time.Time      `json:"savedAt"`
}

// ArchivedQuestion trims a Question to the fields worth keeping in history.
type ArchivedQuestion struct {
	Prompt        string `json:"prompt"`
	CorrectAnswer string `json:"correctAnswer"`
	Category      string `json:"category"`
	Difficulty    string `json:"difficulty"`
	Points        int    `json:"points"`
}

// HistoryRecord is a completed session archived to the history store.
type HistoryRecord struct {
	ID             string             `json:"id"`
	Timestamp      time.Time          `json:"timestamp"`
	Score          float64            `json:"score"`
	Correct        int                `json:"correct"`
	Wrong          int                `json:"wrong"`
	Total          int                `json:"total"`
	Questions      []ArchivedQuestion `json:"questions"`
	Answers        []AnswerRecord     `json:"answers"`
	Category       string             `json:"category"`
	Difficulty     string             `json:"difficulty"`
	ElapsedSeconds int                `json:"elapsedSeconds"`
}

// Profile is the locally "logged in" user. Login is a session timer, not
// authentication: the profile simply expires.
type Profile struct {
	Username   string    `json:"username"`
	LoggedInAt time.Time `json:"loggedInAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// LeaderboardEntry is one ranked row of the accumulated-points scoreboard.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Points   int    `json:"points"`
	Rank     int    `json:"rank"`
}
