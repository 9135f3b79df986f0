package cart

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
	"github.com/ticketeira/storefront/pkg/redis"
)

type recordStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type recordKeyer interface {
	CartKey(sessionID string) string
}

// Store persists one cart record per browser session in Redis.
type Store struct {
	store recordStore
	keyer recordKeyer
	ttl   time.Duration
}

// NewStore builds a cart store backed by the shared Redis client.
func NewStore(client *redis.Client, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "redis client is required")
	}
	if ttl <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart record ttl must be positive")
	}
	return &Store{store: client, keyer: client, ttl: ttl}, nil
}

// Load returns the session's cart, or an empty cart when none was saved yet.
func (s *Store) Load(ctx context.Context, sessionID string) (*Cart, error) {
	raw, err := s.store.Get(ctx, s.keyer.CartKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return &Cart{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart record")
	}

	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cart record")
	}
	return &cart, nil
}

// Save writes the cart record, refreshing its TTL.
func (s *Store) Save(ctx context.Context, sessionID string, cart *Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart record")
	}
	if err := s.store.Set(ctx, s.keyer.CartKey(sessionID), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart record")
	}
	return nil
}

// Delete removes the session's cart record entirely.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Del(ctx, s.keyer.CartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart record")
	}
	return nil
}
