package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/trivia"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionBank serves question sets from Postgres JSONB rows, as an offline
// alternative to the trivia HTTP API. It honors the same error contract:
// too few matching rows is ErrNoQuestions.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) Fetch(ctx context.Context, req trivia.Request) ([]domain.Question, error) {
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidParameter
	}

	rows, err := b.pool.Query(ctx,
		`SELECT data FROM questions
		 WHERE ($1 = '' OR category = $1) AND ($2 = '' OR difficulty = $2)
		 ORDER BY random() LIMIT $3`,
		req.Category, req.Difficulty, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0, req.Amount)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var question domain.Question
		if err := json.Unmarshal(raw, &question); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		if question.Points == 0 {
			question.Points = domain.PointsFor(question.Difficulty)
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	if len(questions) < req.Amount {
		return nil, domain.ErrNoQuestions
	}
	return questions, nil
}
