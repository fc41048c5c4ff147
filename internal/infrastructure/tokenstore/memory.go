// Package tokenstore provides the TokenStore backends selected by
// RATING_TOKEN_STORE and a constructor that opens the configured one.
package tokenstore

import (
	"context"
	"sync"
)

// Memory keeps the token for the life of the process only.
type Memory struct {
	mu    sync.RWMutex
	token string
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load(context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != "", nil
}

func (m *Memory) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
