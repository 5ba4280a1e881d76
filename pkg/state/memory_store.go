package state

import (
	"context"
	"sync"

	settings "github.com/mldkyt/go-settings"
)

var _ settings.Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory store intended for tests, examples and the
// CLI default. It uses Ref.Identifier as its deterministic key.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]string
	closed  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]string{}}
}

func (s *MemoryStore) Get(_ context.Context, domain, key string) (string, bool, error) {
	id, err := Ref{Domain: domain, Key: key}.Identifier()
	if err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	value, ok := s.records[id]
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, domain, key, value string) error {
	id, err := Ref{Domain: domain, Key: key}.Identifier()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.records[id] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, domain, key string) error {
	id, err := Ref{Domain: domain, Key: key}.Identifier()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.records, id)
	return nil
}

// Len reports the number of stored values across all domains.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
