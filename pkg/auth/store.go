package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/parlorvoice/parlor/pkg/kv"
)

// identityRecord is the persisted session-scoped identity. Access tokens are
// deliberately not stored; a restarted process refreshes to obtain one.
type identityRecord struct {
	RefreshToken string    `msgpack:"refresh_token"`
	UISessionID  string    `msgpack:"ui_session_id"`
	ExpiresAt    time.Time `msgpack:"expires_at"`
}

func (m *Manager) identityKey() kv.Key {
	return kv.Key{"auth", m.cfg.Profile}
}

// persist writes the current identity to the configured store. No-op when
// no store is configured or nothing is held.
func (m *Manager) persist(ctx context.Context) error {
	if m.cfg.Store == nil {
		return nil
	}

	m.mu.Lock()
	if m.token == nil {
		m.mu.Unlock()
		return nil
	}
	rec := identityRecord{
		RefreshToken: m.token.RefreshToken,
		UISessionID:  m.uiSessionID,
		ExpiresAt:    m.token.ExpiresAt,
	}
	m.mu.Unlock()

	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("auth: encode identity: %w", err)
	}
	return m.cfg.Store.Set(ctx, m.identityKey(), data)
}

// LoadPersisted restores the persisted identity and immediately refreshes
// to obtain a fresh access token. Returns ErrNotAuthenticated when nothing
// is persisted.
func (m *Manager) LoadPersisted(ctx context.Context) error {
	if m.cfg.Store == nil {
		return ErrNotAuthenticated
	}

	data, err := m.cfg.Store.Get(ctx, m.identityKey())
	if errors.Is(err, kv.ErrNotFound) {
		return ErrNotAuthenticated
	}
	if err != nil {
		return fmt.Errorf("auth: load identity: %w", err)
	}

	var rec identityRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("auth: decode identity: %w", err)
	}

	m.mu.Lock()
	m.token = &Token{RefreshToken: rec.RefreshToken, ExpiresAt: rec.ExpiresAt}
	m.uiSessionID = rec.UISessionID
	m.mu.Unlock()

	// The persisted record has no access token; refresh for a usable one.
	return m.Refresh(ctx)
}
