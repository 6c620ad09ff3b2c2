// Package redis provides Redis-based adapters for sessions, rate limiting,
// caching and the job queue.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// markTwoFactorScript sets the flag with the session's remaining TTL, and
// only while the session key still exists.
var markTwoFactorScript = redis.NewScript(`
local ttl = redis.call('PTTL', KEYS[1])
if ttl <= 0 then
  return 0
end
redis.call('SET', KEYS[2], '1', 'PX', ttl)
return 1
`)

// SessionStore is a Redis-based session store for production use.
// It handles TTL semantics automatically based on session ExpiresAt. The
// session body and its two-factor flag share a hash tag so multi-key
// commands stay on one cluster slot.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, "session:")
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

func (s *SessionStore) bodyKey(id string) string { return s.prefix + "{" + id + "}" }
func (s *SessionStore) flagKey(id string) string { return s.prefix + "{" + id + "}:2fa" }

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.bodyKey(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	vals, err := s.client.MGet(ctx, s.bodyKey(id), s.flagKey(id)).Result()
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("redis mget: %w", err)
	}

	// A concurrent logout between write and read simply shows up as a nil body.
	body, ok := vals[0].(string)
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(body), &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}
	if sess.Expired(s.now()) {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	flag, _ := vals[1].(string)
	sess.TwoFactorVerified = flag == "1"
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil // Nothing to delete
	}
	if err := s.client.Del(ctx, s.bodyKey(id), s.flagKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *SessionStore) MarkTwoFactorVerified(ctx context.Context, id string) error {
	if id == "" {
		return ports.ErrSessionNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	set, err := markTwoFactorScript.Run(ctx, s.client, []string{s.bodyKey(id), s.flagKey(id)}).Int()
	if err != nil {
		return fmt.Errorf("mark two-factor: %w", err)
	}
	if set == 0 {
		return ports.ErrSessionNotFound
	}
	return nil
}
