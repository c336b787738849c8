package memory

import (
	"context"
	"sync"

	"github.com/YelzhanWeb/comandas/internal/domain"
)

// SessionStore keeps the current session in process memory.
type SessionStore struct {
	mu   sync.RWMutex
	sess *domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Save(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = &sess
	return nil
}

func (s *SessionStore) Load(_ context.Context) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sess == nil {
		return nil, domain.ErrNoSession
	}
	cp := *s.sess
	return &cp, nil
}

func (s *SessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil
	return nil
}
