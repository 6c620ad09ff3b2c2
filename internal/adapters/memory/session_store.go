// Package memory provides in-process adapters used in dev mode and tests.
// They honour the same concurrency contracts as the Redis adapters.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

type sessionEntry struct {
	sess      domainauth.Session
	twoFactor bool
}

// SessionStore is an in-memory ports.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]sessionEntry
	nowF     func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]sessionEntry), nowF: time.Now}
}

// WithClock overrides the clock for tests.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.nowF = now
	return s
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if sess.Expired(s.nowF()) {
		return errors.New("session is expired")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sessionEntry{sess: sess}
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	if e.sess.Expired(s.nowF()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	sess := e.sess
	sess.TwoFactorVerified = e.twoFactor
	return sess, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) MarkTwoFactorVerified(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok || e.sess.Expired(s.nowF()) {
		return ports.ErrSessionNotFound
	}
	e.twoFactor = true
	s.sessions[id] = e
	return nil
}
