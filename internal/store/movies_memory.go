package store

import (
	"context"
	"sync"
	"time"
)

// InMemoryMovieStore is a development and test double for MovieStore.
type InMemoryMovieStore struct {
	mu      sync.RWMutex
	byMsgID map[string]Movie
}

func NewInMemoryMovieStore() *InMemoryMovieStore {
	return &InMemoryMovieStore{byMsgID: make(map[string]Movie)}
}

func (s *InMemoryMovieStore) Register(_ context.Context, m Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byMsgID[m.MessageID]; ok {
		return nil
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.byMsgID[m.MessageID] = m
	return nil
}

func (s *InMemoryMovieStore) ResolveMessage(_ context.Context, messageID string) (Movie, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byMsgID[messageID]
	return m, ok, nil
}

func (s *InMemoryMovieStore) FindInChannel(_ context.Context, imdbID, channelID, guildID string) (Movie, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.byMsgID {
		if m.IMDBID == imdbID && m.ChannelID == channelID && m.GuildID == guildID {
			return m, true, nil
		}
	}
	return Movie{}, false, nil
}

func (s *InMemoryMovieStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byMsgID)), nil
}
