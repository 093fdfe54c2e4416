// ABOUTME: Storage interface shared by every persistence backend
// ABOUTME: Provides the key names, sentinel errors and an in-memory implementation
package db

import (
	"errors"
	"sync"
)

// Storage keys, one JSON snapshot per collection.
const (
	KeyClients       = "crm_clients"
	KeyOpportunities = "crm_opportunities"
	KeyTasks         = "crm_tasks"
	KeyAgents        = "crm_ai_agents"
	KeyChatHistory   = "crm_agent_chat_history"
)

// Keys lists every key the application owns.
var Keys = []string{KeyClients, KeyOpportunities, KeyTasks, KeyAgents, KeyChatHistory}

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid entity")
)

// Storage is a string-keyed byte store. Get returns nil, nil for a missing key.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// MemoryStorage keeps values in a map. Used by tests and the "memory" backend.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte

	// FailSet, when non-nil, is returned by every Set call.
	FailSet error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStorage) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSet != nil {
		return m.FailSet
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.values[key] = v
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
