package auth

import (
	"context"
	"sync"

	"taste-test/internal/domain"
)

// MemoryStore es un SessionStore en memoria para tests y ejecuciones efimeras.
type MemoryStore struct {
	mu      sync.Mutex
	session *domain.AuthSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, session domain.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &session
	return nil
}

func (m *MemoryStore) Load(_ context.Context) (domain.AuthSession, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return domain.AuthSession{}, false, nil
	}
	return *m.session, true, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
