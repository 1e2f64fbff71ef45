package store

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store. Writes inside WithTx are staged and
// applied only when fn succeeds.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	stage := &stagedStore{base: m, writes: map[string][]byte{}, deletes: map[string]bool{}}
	if err := fn(ctx, stage); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range stage.deletes {
		delete(m.data, k)
	}
	for k, v := range stage.writes {
		m.data[k] = v
	}
	return nil
}

type stagedStore struct {
	base    *MemoryStore
	writes  map[string][]byte
	deletes map[string]bool
}

func (s *stagedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := s.writes[key]; ok {
		return append([]byte(nil), v...), nil
	}
	if s.deletes[key] {
		return nil, nil
	}
	return s.base.Get(ctx, key)
}

func (s *stagedStore) Set(_ context.Context, key string, value []byte) error {
	delete(s.deletes, key)
	s.writes[key] = append([]byte(nil), value...)
	return nil
}

func (s *stagedStore) Delete(_ context.Context, key string) error {
	delete(s.writes, key)
	s.deletes[key] = true
	return nil
}
