package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore(newTestClient(t), time.Minute)

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "quiz:snapshot:u1", `{"timeLeft":42}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := store.Get(ctx, "quiz:snapshot:u1")
	if err != nil || !ok || value != `{"timeLeft":42}` {
		t.Fatalf("unexpected read: %q ok=%v err=%v", value, ok, err)
	}

	if err := store.Delete(ctx, "quiz:snapshot:u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "quiz:snapshot:u1"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestLeaderboardAccumulatesAndRanks(t *testing.T) {
	ctx := context.Background()
	board := NewLeaderboard(newTestClient(t))

	_ = board.Add(ctx, "alice", 30)
	_ = board.Add(ctx, "bob", 50)
	_ = board.Add(ctx, "alice", 40)

	top, err := board.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].Username != "alice" || top[0].Points != 70 || top[0].Rank != 1 {
		t.Fatalf("expected alice leading with 70, got %+v", top[0])
	}
}
