package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/memotag/memotag-server/internal/errors"
)

// faultyStore fails every operation, simulating an unreachable backend.
type faultyStore struct{}

var errStoreDown = errors.New("connection refused")

func (faultyStore) Create(ctx context.Context, token string, payload Payload, ttl time.Duration) error {
	return errStoreDown
}

func (faultyStore) Get(ctx context.Context, token string) (Payload, error) {
	return nil, errStoreDown
}

func (faultyStore) Extend(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	return false, errStoreDown
}

func (faultyStore) Delete(ctx context.Context, token string) error {
	return errStoreDown
}

func TestManager_CreateSession(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store, time.Hour)
	ctx := context.Background()

	token, err := mgr.CreateSession(ctx, "admin", Payload{"role": "admin"})
	require.NoError(t, err)

	// 32 random bytes hex-encoded.
	assert.Len(t, token, 64)

	payload := mgr.GetSession(ctx, token)
	require.NotNil(t, payload)
	assert.Equal(t, "admin", payload["ownerId"])
	assert.Equal(t, "admin", payload["role"])

	createdAt, ok := payload["createdAt"].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339, createdAt)
	assert.NoError(t, err)
}

func TestManager_CreateSessionUniqueTokens(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), time.Hour)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := mgr.CreateSession(ctx, "admin", nil)
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestManager_CreateSessionEmptyOwner(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), time.Hour)

	_, err := mgr.CreateSession(context.Background(), "", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
}

func TestManager_CreateSessionStoreDown(t *testing.T) {
	mgr := NewManager(faultyStore{}, time.Hour)

	// Write failures must surface: never hand out a cookie that was not
	// persisted.
	_, err := mgr.CreateSession(context.Background(), "admin", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStoreUnavailable, apperrors.GetCode(err))
	assert.ErrorIs(t, err, errStoreDown)
}

func TestManager_GetSessionEmptyToken(t *testing.T) {
	mgr := NewManager(faultyStore{}, time.Hour)

	// Empty token short-circuits without touching the store; the faulty
	// store would error if it were consulted.
	assert.Nil(t, mgr.GetSession(context.Background(), ""))
}

func TestManager_GetSessionUnknownToken(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), time.Hour)
	assert.Nil(t, mgr.GetSession(context.Background(), "nope"))
}

func TestManager_GetSessionStoreDown(t *testing.T) {
	mgr := NewManager(faultyStore{}, time.Hour)

	// Read failures deny access instead of granting it.
	assert.Nil(t, mgr.GetSession(context.Background(), "sometoken"))
}

func TestManager_ExtendSession(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), time.Hour)
	ctx := context.Background()

	token, err := mgr.CreateSession(ctx, "admin", nil)
	require.NoError(t, err)

	assert.True(t, mgr.ExtendSession(ctx, token))
	assert.False(t, mgr.ExtendSession(ctx, "nope"))
	assert.False(t, mgr.ExtendSession(ctx, ""))
}

func TestManager_ExtendSessionStoreDown(t *testing.T) {
	mgr := NewManager(faultyStore{}, time.Hour)
	assert.False(t, mgr.ExtendSession(context.Background(), "sometoken"))
}

func TestManager_DeleteSession(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), time.Hour)
	ctx := context.Background()

	token, err := mgr.CreateSession(ctx, "admin", nil)
	require.NoError(t, err)

	mgr.DeleteSession(ctx, token)
	assert.Nil(t, mgr.GetSession(ctx, token))
}

func TestManager_DeleteSessionStoreDown(t *testing.T) {
	mgr := NewManager(faultyStore{}, time.Hour)

	// Must not panic or surface the error; logout always succeeds.
	mgr.DeleteSession(context.Background(), "sometoken")
	mgr.DeleteSession(context.Background(), "")
}
