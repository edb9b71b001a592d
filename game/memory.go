package game

import (
	"context"
	"sync"
)

// MemoryStore is a Store for a single replica.
type MemoryStore struct {
	mu    sync.Mutex
	games map[string]*Info
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]*Info)}
}

func (s *MemoryStore) Get(ctx context.Context, gameID string) (*Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	return info.clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, info *Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := info.clone()
	if old, ok := s.games[info.GameID]; ok {
		for name, p := range old.Users {
			if _, ok := c.Users[name]; !ok {
				c.Users[name] = p
			}
		}
	}
	s.games[info.GameID] = c
	return nil
}

func (s *MemoryStore) AddPlayer(ctx context.Context, gameID, username string, p Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.games[gameID]
	if !ok {
		return ErrNotFound
	}
	if info.Users == nil {
		info.Users = make(map[string]Player)
	}
	info.Users[username] = p
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
	return nil
}
