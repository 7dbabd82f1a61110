// Package respcache holds provider response payloads so repeated queries in a
// run do not hit the network again.
package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Store is a byte-oriented response cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Key builds a stable cache key from its parts. Long parts are hashed so keys
// stay short for the Redis backend.
func Key(parts ...string) string {
	joined := strings.Join(parts, "|")
	if len(joined) <= 128 {
		return joined
	}
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// Namespaced prefixes every key with a provider id so several clients can
// share one backing store.
type Namespaced struct {
	prefix string
	store  Store
}

// WithNamespace wraps store so keys are scoped to ns.
func WithNamespace(store Store, ns string) *Namespaced {
	return &Namespaced{prefix: ns + ":", store: store}
}

// Get implements Store.
func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.store.Get(ctx, n.prefix+key)
}

// Set implements Store.
func (n *Namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.store.Set(ctx, n.prefix+key, value)
}
