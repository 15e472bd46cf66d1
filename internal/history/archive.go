// Package history archives completed sessions to the key-value store and
// derives aggregate statistics and achievements across them.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/session"
)

const keyPrefix = "quiz:history:"

// Store is the key-value persistence the archive writes through.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Archive keeps one JSON-serialized record list per user.
type Archive struct {
	store Store
}

func NewArchive(store Store) *Archive {
	return &Archive{store: store}
}

// List returns the user's archived records, newest first. Corrupt stored
// JSON degrades to an empty history.
func (a *Archive) List(ctx context.Context, user string) []domain.HistoryRecord {
	raw, ok, err := a.store.Get(ctx, storageKey(user))
	if err != nil || !ok {
		if err != nil {
			log.Printf("history load for %s: %v", user, err)
		}
		return nil
	}
	var records []domain.HistoryRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		log.Printf("history for %s corrupt, starting fresh: %v", user, err)
		return nil
	}
	return records
}

// Append archives a record. Records are deduplicated primarily by ID; the
// legacy (timestamp, score) heuristic is kept as a secondary guard for
// records written before IDs existed.
func (a *Archive) Append(ctx context.Context, user string, record domain.HistoryRecord) error {
	records := a.List(ctx, user)
	for _, existing := range records {
		if record.ID != "" && existing.ID == record.ID {
			return nil
		}
		if existing.Timestamp.Equal(record.Timestamp) && existing.Score == record.Score {
			return nil
		}
	}

	records = append([]domain.HistoryRecord{record}, records...)
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	return a.store.Set(ctx, storageKey(user), string(data))
}

// Clear wipes the user's history.
func (a *Archive) Clear(ctx context.Context, user string) error {
	return a.store.Delete(ctx, storageKey(user))
}

func storageKey(user string) string {
	return keyPrefix + user
}

// BuildRecord assembles an archive record from a completed session state.
func BuildRecord(id string, st session.State) domain.HistoryRecord {
	stats := session.DeriveStats(st)

	questions := make([]domain.ArchivedQuestion, 0, len(st.Questions))
	for _, q := range st.Questions {
		questions = append(questions, domain.ArchivedQuestion{
			Prompt:        q.Prompt,
			CorrectAnswer: q.CorrectAnswer,
			Category:      q.Category,
			Difficulty:    q.Difficulty,
			Points:        q.Points,
		})
	}

	elapsed := 0
	if !st.StartedAt.IsZero() && !st.EndedAt.IsZero() {
		elapsed = int(st.EndedAt.Sub(st.StartedAt) / time.Second)
	}

	return domain.HistoryRecord{
		ID:             id,
		Timestamp:      st.EndedAt,
		Score:          stats.Score,
		Correct:        stats.Correct,
		Wrong:          stats.Wrong,
		Total:          stats.Total,
		Questions:      questions,
		Answers:        st.Answers,
		Category:       st.Category,
		Difficulty:     st.Difficulty,
		ElapsedSeconds: elapsed,
	}
}
