package redis

import (
	"context"
	"fmt"

	"trivia-session-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "quiz:leaderboard"

// Leaderboard keeps accumulated points in a Redis sorted set so rankings
// survive restarts and can be shared across instances.
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

func (l *Leaderboard) Add(ctx context.Context, username string, points int) error {
	if err := l.client.ZIncrBy(ctx, leaderboardKey, float64(points), username).Err(); err != nil {
		return fmt.Errorf("leaderboard add: %w", err)
	}
	return nil
}

func (l *Leaderboard) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	if n <= 0 {
		n = 10
	}
	ranked, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard top: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for i, z := range ranked {
		username, _ := z.Member.(string)
		entries = append(entries, domain.LeaderboardEntry{
			Username: username,
			Points:   int(z.Score),
			Rank:     i + 1,
		})
	}
	return entries, nil
}
