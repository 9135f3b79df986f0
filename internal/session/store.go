package session

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
	SessionKey(sessionID string) string
}

// tokenRecord is the persisted shape: tokens only, never the profile. The
// profile is re-fetched on restore so a stale copy can't outlive a revoked
// token.
type tokenRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Store persists one token record per browser session in Redis.
type Store struct {
	store recordStore
	keyer recordKeyer
	ttl   time.Duration
}

// NewStore builds a session store backed by the shared Redis client.
func NewStore(client *redis.Client, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "redis client is required")
	}
	if ttl <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session record ttl must be positive")
	}
	return &Store{store: client, keyer: client, ttl: ttl}, nil
}

// LoadTokens returns the stored token pair, or empty strings when nothing is
// stored for the session.
func (s *Store) LoadTokens(ctx context.Context, sessionID string) (access, refresh string, err error) {
	raw, err := s.store.Get(ctx, s.keyer.SessionKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return "", "", nil
		}
		return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session record")
	}

	var record tokenRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode session record")
	}
	return record.AccessToken, record.RefreshToken, nil
}

// SaveTokens writes the token pair, refreshing the record TTL.
func (s *Store) SaveTokens(ctx context.Context, sessionID, access, refresh string) error {
	payload, err := json.Marshal(tokenRecord{AccessToken: access, RefreshToken: refresh})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session record")
	}
	if err := s.store.Set(ctx, s.keyer.SessionKey(sessionID), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save session record")
	}
	return nil
}

// Delete removes the session's token record.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Del(ctx, s.keyer.SessionKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete session record")
	}
	return nil
}
