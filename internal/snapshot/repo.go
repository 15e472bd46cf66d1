// Package snapshot persists in-progress sessions to a key-value store so a
// session survives a process restart, and restores them by replaying answers
// through the reducer.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/session"
)

const keyPrefix = "quiz:snapshot:"

// Store is the key-value persistence the bridge writes through.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Repo serializes snapshots to and from the store, one per user.
type Repo struct {
	store Store
}

func NewRepo(store Store) *Repo {
	return &Repo{store: store}
}

// Load reads the user's snapshot. Malformed stored JSON is treated as no
// snapshot: logged for diagnostics, never surfaced.
func (r *Repo) Load(ctx context.Context, user string) (domain.Snapshot, bool) {
	raw, ok, err := r.store.Get(ctx, storageKey(user))
	if err != nil || !ok {
		if err != nil {
			log.Printf("snapshot load for %s: %v", user, err)
		}
		return domain.Snapshot{}, false
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		log.Printf("snapshot for %s corrupt, discarding: %v", user, err)
		return domain.Snapshot{}, false
	}
	if len(snap.Questions) == 0 {
		return domain.Snapshot{}, false
	}
	return snap, true
}

// Save writes the snapshot.
func (r *Repo) Save(ctx context.Context, user string, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return r.store.Set(ctx, storageKey(user), string(data))
}

// Delete removes the user's snapshot (on complete, restart, clear or a
// declined resume).
func (r *Repo) Delete(ctx context.Context, user string) error {
	return r.store.Delete(ctx, storageKey(user))
}

func storageKey(user string) string {
	return keyPrefix + user
}

// Eligible reports whether a state should be snapshotted: an active session
// with questions in play.
func Eligible(s session.State) bool {
	return !s.Completed && !s.Loading && len(s.Questions) > 0
}

// FromState builds the persisted subset of a session state.
func FromState(s session.State, now time.Time) domain.Snapshot {
	return domain.Snapshot{
		Questions:    s.Questions,
		Answers:      s.Answers,
		CurrentIndex: s.CurrentIndex,
		TimeLeft:     s.TimeLeft,
		Category:     s.Category,
		Difficulty:   s.Difficulty,
		Amount:       s.Amount,
		SavedAt:      now,
	}
}

// Restore replays a snapshot into a session state through the reducer:
// questions first, then each answer in its original order (replacement keeps
// this idempotent), then the timer, then the index via repeated NextQuestion
// dispatches to reuse the clamping logic.
func Restore(r session.Reducer, base session.State, snap domain.Snapshot) session.State {
	st := base
	if len(st.Questions) == 0 {
		st = r.Reduce(st, session.SetQuestions{
			Questions:  snap.Questions,
			Category:   snap.Category,
			Difficulty: snap.Difficulty,
			Amount:     snap.Amount,
		})
	}
	for _, rec := range snap.Answers {
		st = r.Reduce(st, session.AnswerQuestion{Record: rec})
	}
	st = r.Reduce(st, session.SetTime{Seconds: snap.TimeLeft})
	for i := 0; i < len(snap.Questions) && st.CurrentIndex < snap.CurrentIndex; i++ {
		st = r.Reduce(st, session.NextQuestion{})
	}
	return st
}
