package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/memotag/memotag-server/internal/errors"
	"github.com/memotag/memotag-server/internal/util"
)

// Manager wraps a Store with the session lifecycle policy. All callers go
// through it; the Store is never exposed to handlers directly.
//
// Error handling is asymmetric on purpose. A failed create must be
// reported so a caller never hands out a cookie that was not persisted. A
// failed lookup or extend degrades to "no session", so a flaky store
// denies access instead of granting it. A failed delete is logged and
// dropped: the entry still expires by TTL.
type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

// TTL returns the configured session lifetime, used to size cookies.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// CreateSession mints a random token and stores the payload under it. The
// returned token is what goes into the cookie; it never contains the
// payload itself.
func (m *Manager) CreateSession(ctx context.Context, ownerID string, payload Payload) (string, error) {
	if ownerID == "" {
		return "", apperrors.MissingRequired("ownerId")
	}

	token, err := util.GenerateToken()
	if err != nil {
		return "", apperrors.Internal("Failed to generate session token").WithCause(err)
	}

	merged := Payload{}
	for k, v := range payload {
		merged[k] = v
	}
	merged["ownerId"] = ownerID
	merged["createdAt"] = time.Now().UTC().Format(time.RFC3339)

	if err := m.store.Create(ctx, token, merged, m.ttl); err != nil {
		return "", apperrors.StoreUnavailable(err)
	}
	return token, nil
}

// GetSession returns the payload for a token, or nil when the token is
// empty, unknown, expired, or the store errored. The nil cases are
// indistinguishable to the caller; an error only shows up in the logs.
func (m *Manager) GetSession(ctx context.Context, token string) Payload {
	if token == "" {
		return nil
	}

	payload, err := m.store.Get(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("Session lookup failed, treating as absent")
		return nil
	}
	return payload
}

// ExtendSession resets the TTL to the full configured duration. Returns
// false when the token is absent or the store errored.
func (m *Manager) ExtendSession(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	ok, err := m.store.Extend(ctx, token, m.ttl)
	if err != nil {
		log.Warn().Err(err).Msg("Session extend failed, treating as absent")
		return false
	}
	return ok
}

// DeleteSession removes the token. Errors are logged and swallowed so
// logout always succeeds from the client's point of view.
func (m *Manager) DeleteSession(ctx context.Context, token string) {
	if token == "" {
		return
	}

	if err := m.store.Delete(ctx, token); err != nil {
		log.Warn().Err(err).Msg("Session delete failed, entry will expire by TTL")
	}
}
