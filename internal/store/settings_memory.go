package store

import (
	"context"
	"sync"
)

// InMemorySettingsStore is a development and test double for SettingsStore.
type InMemorySettingsStore struct {
	mu       sync.RWMutex
	channels map[string]string // guild_id -> channel_id
}

func NewInMemorySettingsStore() *InMemorySettingsStore {
	return &InMemorySettingsStore{channels: make(map[string]string)}
}

func (s *InMemorySettingsStore) SetChannel(_ context.Context, guildID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[guildID] = channelID
	return nil
}

func (s *InMemorySettingsStore) Channel(_ context.Context, guildID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[guildID]
	return ch, ok, nil
}

func (s *InMemorySettingsStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.channels)), nil
}
