package accounts

import (
	"context"
	"sync"

	"github.com/guildboard/guildboard/pkg/session"
)

// Memory is a process-local account store.
type Memory struct {
	mu      sync.RWMutex
	records map[string]string
}

var _ session.AccountStore = (*Memory)(nil)

// NewMemory creates an empty in-memory account store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]string)}
}

func (s *Memory) Put(_ context.Context, userID string, encrypted string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = encrypted
	return nil
}

func (s *Memory) Get(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[userID]
	if !ok {
		return "", session.ErrAccountNotFound
	}
	return record, nil
}
