package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	principal Principal
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Used in tests and
// single-node development.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	byAccount map[string]map[string]struct{}
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]memoryEntry),
		byAccount: make(map[string]map[string]struct{}),
		now:       time.Now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, tokenID string, p Principal, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[tokenID] = memoryEntry{principal: p, expiresAt: s.now().Add(ttl)}
	if s.byAccount[p.AccountID] == nil {
		s.byAccount[p.AccountID] = make(map[string]struct{})
	}
	s.byAccount[p.AccountID][tokenID] = struct{}{}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, tokenID string) (Principal, error) {
	s.mu.RLock()
	entry, ok := s.entries[tokenID]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.expiresAt) {
		return Principal{}, ErrNotFound
	}
	return entry.principal, nil
}

func (s *MemoryStore) Clear(ctx context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(tokenID)
	return nil
}

func (s *MemoryStore) ClearAccount(ctx context.Context, accountID, keepTokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for tokenID := range s.byAccount[accountID] {
		if tokenID == keepTokenID {
			continue
		}
		s.remove(tokenID)
	}
	return nil
}

// remove must be called with the write lock held.
func (s *MemoryStore) remove(tokenID string) {
	entry, ok := s.entries[tokenID]
	if !ok {
		return
	}
	delete(s.entries, tokenID)

	tokens := s.byAccount[entry.principal.AccountID]
	delete(tokens, tokenID)
	if len(tokens) == 0 {
		delete(s.byAccount, entry.principal.AccountID)
	}
}
