// Package redis provides Redis-based adapters for campi.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/ports"
)

const (
	defaultSessionPrefix = "campi:session:"
	defaultUserPrefix    = "campi:user-sessions:"
)

// ErrNotFound is returned when a session is missing or expired.
var ErrNotFound = ports.ErrSessionNotFound

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore keeps sessions as JSON values whose Redis TTL matches ExpiresAt.
// A per-user set indexes session ids so every session of an account can be revoked.
type SessionStore struct {
	client     redis.UniversalClient
	prefix     string
	userPrefix string
	now        func() time.Time
}

// SessionStoreOption customises a SessionStore.
type SessionStoreOption func(*SessionStore)

// WithPrefix overrides the key prefix for session values.
func WithPrefix(prefix string) SessionStoreOption {
	return func(s *SessionStore) { s.prefix = prefix }
}

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) SessionStoreOption {
	return func(s *SessionStore) { s.now = now }
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient, opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		client:     client,
		prefix:     defaultSessionPrefix,
		userPrefix: defaultUserPrefix,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores sess until its ExpiresAt.
func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.prefix+sess.ID, data, ttl)
	if sess.UserID != "" {
		idx := s.userPrefix + sess.UserID
		pipe.SAdd(ctx, idx, sess.ID)
		pipe.Expire(ctx, idx, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

// Get loads a session. Missing and expired sessions both return ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ErrNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	if sess.ID != id {
		return domainauth.Session{}, fmt.Errorf("session id mismatch for key %q", id)
	}

	if sess.Expired(s.now()) {
		if err := s.Delete(ctx, id); err != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", err)
		}
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

// Delete removes one session. Deleting an unknown id is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	key := s.prefix + id
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis get: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	var sess domainauth.Session
	if len(data) > 0 && json.Unmarshal(data, &sess) == nil && sess.UserID != "" {
		pipe.SRem(ctx, s.userPrefix+sess.UserID, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// DeleteForUser revokes every session of userID and returns how many were removed.
func (s *SessionStore) DeleteForUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	idx := s.userPrefix + userID
	ids, err := s.client.SMembers(ctx, idx).Result()
	if err != nil {
		return 0, fmt.Errorf("redis smembers: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.prefix+id)
	}
	removed, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del: %w", err)
	}
	if err := s.client.Del(ctx, idx).Err(); err != nil {
		return int(removed), fmt.Errorf("redis del index: %w", err)
	}
	return int(removed), nil
}
