// Package profile keeps the locally "logged in" user. There is no real
// authentication: a login is a stored username with an expiry timestamp.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"trivia-session-service/internal/domain"
)

const storageKey = "quiz:profile"

// DefaultTTL is how long a login lasts without renewal.
const DefaultTTL = 24 * time.Hour

// Store is the key-value persistence the manager writes through.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Manager reads and writes the single active profile.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// Login stores a fresh profile for the username.
func (m *Manager) Login(ctx context.Context, username string) (domain.Profile, error) {
	if username == "" {
		return domain.Profile{}, domain.ErrUsernameRequired
	}
	now := m.now()
	profile := domain.Profile{
		Username:   username,
		LoggedInAt: now,
		ExpiresAt:  now.Add(m.ttl),
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("marshal profile: %w", err)
	}
	if err := m.store.Set(ctx, storageKey, string(data)); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// Current returns the active profile while it is unexpired. An expired or
// corrupt profile is dropped.
func (m *Manager) Current(ctx context.Context) (domain.Profile, bool) {
	raw, ok, err := m.store.Get(ctx, storageKey)
	if err != nil || !ok {
		if err != nil {
			log.Printf("profile load: %v", err)
		}
		return domain.Profile{}, false
	}
	var profile domain.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		log.Printf("profile corrupt, discarding: %v", err)
		_ = m.store.Delete(ctx, storageKey)
		return domain.Profile{}, false
	}
	if !m.now().Before(profile.ExpiresAt) {
		_ = m.store.Delete(ctx, storageKey)
		return domain.Profile{}, false
	}
	return profile, true
}

// Touch renews the expiry of the active profile, if any.
func (m *Manager) Touch(ctx context.Context) {
	profile, ok := m.Current(ctx)
	if !ok {
		return
	}
	profile.ExpiresAt = m.now().Add(m.ttl)
	if data, err := json.Marshal(profile); err == nil {
		_ = m.store.Set(ctx, storageKey, string(data))
	}
}

// Logout drops the active profile.
func (m *Manager) Logout(ctx context.Context) error {
	return m.store.Delete(ctx, storageKey)
}
