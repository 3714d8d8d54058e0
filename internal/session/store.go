// Package session owns the admin session token lifecycle: opaque random
// tokens mapped to a JSON payload in a TTL-capable key-value store.
//
// Store implementations surface errors honestly; the propagation policy
// (write failures are hard errors, read failures collapse to "absent",
// delete failures are swallowed) lives in Manager so it is applied in
// exactly one place.
package session

import (
	"context"
	"time"
)

// Payload is the user-supplied mapping stored alongside a token. Its shape
// is not enforced; whatever is stored at create time is echoed back
// verbatim on lookup.
type Payload map[string]any

// Store is a TTL key-value backend for sessions. Get returns (nil, nil)
// when the token is unknown or expired; that is a normal outcome, not an
// error.
type Store interface {
	Create(ctx context.Context, token string, payload Payload, ttl time.Duration) error
	Get(ctx context.Context, token string) (Payload, error)
	// Extend rewrites the payload under the same token with the TTL reset
	// to the full duration. Returns false when the token is absent.
	Extend(ctx context.Context, token string, ttl time.Duration) (bool, error)
	// Delete removes the token. Deleting an absent token is a no-op.
	Delete(ctx context.Context, token string) error
}
