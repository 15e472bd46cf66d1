package trivia

import (
	"context"
	"sync"

	"trivia-session-service/internal/domain"
)

// Source supplies question sets (HTTP API, Postgres bank, cache).
type Source interface {
	Fetch(ctx context.Context, req Request) ([]domain.Question, error)
}

// Fetcher serializes fetches with cancel-and-replace semantics: starting a
// new fetch aborts the previous in-flight request so a stale response can
// never overwrite a newer session.
type Fetcher struct {
	source Source

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func NewFetcher(source Source) *Fetcher {
	return &Fetcher{source: source}
}

// Fetch cancels any in-flight fetch and starts a new one.
func (f *Fetcher) Fetch(ctx context.Context, req Request) ([]domain.Question, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	gen := f.gen
	f.cancel = cancel
	f.mu.Unlock()

	questions, err := f.source.Fetch(ctx, req)

	f.mu.Lock()
	if f.gen == gen {
		f.cancel = nil
	}
	f.mu.Unlock()

	return questions, err
}

// Abort cancels the in-flight fetch, if any (teardown when the session goes
// away mid-fetch).
func (f *Fetcher) Abort() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
