package credstore

import (
	"context"
	"sync"

	"github.com/trezcool/mahudhurio/core/session"
)

// MemoryStore keeps values in process memory, encoded the same way SQLiteStore does.
// It backs ephemeral runs and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	vals map[string]string
}

func NewMemory() *MemoryStore {
	return &MemoryStore{vals: make(map[string]string)}
}

func (s *MemoryStore) LoadSession(context.Context) (session.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := decodeRecord(s.vals[KeyToken], s.vals[KeyUser])
	return rec, ok, nil
}

func (s *MemoryStore) SaveSession(_ context.Context, rec session.Record) error {
	blob, err := encodeUser(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.vals[KeyToken] = rec.Token
	s.vals[KeyUser] = blob
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ClearSession(context.Context) error {
	s.mu.Lock()
	delete(s.vals, KeyToken)
	delete(s.vals, KeyUser)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LoadLanguage(context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.vals[KeyLanguage]
	return code, ok && code != "", nil
}

func (s *MemoryStore) SaveLanguage(_ context.Context, code string) error {
	s.mu.Lock()
	s.vals[KeyLanguage] = code
	s.mu.Unlock()
	return nil
}

// Set writes a raw value, bypassing encoding.
func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	s.vals[key] = value
	s.mu.Unlock()
}

// Get reads a raw value.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vals[key]
	return v, ok
}

func (s *MemoryStore) Close() error { return nil }
