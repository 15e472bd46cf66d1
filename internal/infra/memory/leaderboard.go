package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-session-service/internal/domain"
)

// Leaderboard accumulates earned points per username in process memory.
type Leaderboard struct {
	mu     sync.RWMutex
	points map[string]int
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{points: make(map[string]int)}
}

func (l *Leaderboard) Add(_ context.Context, username string, points int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points[username] += points
	return nil
}

func (l *Leaderboard) Top(_ context.Context, n int) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	entries := make([]domain.LeaderboardEntry, 0, len(l.points))
	for username, points := range l.points {
		entries = append(entries, domain.LeaderboardEntry{Username: username, Points: points})
	}
	l.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].Username < entries[j].Username
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
