package store

import (
	"context"
	"sync"
)

// InMemoryRatingStore is a development and test double for RatingStore.
// State is lost on restart; not suitable for production.
type InMemoryRatingStore struct {
	mu    sync.RWMutex
	votes map[Scope]map[string]int // scope -> user_id -> rating
}

func NewInMemoryRatingStore() *InMemoryRatingStore {
	return &InMemoryRatingStore{votes: make(map[Scope]map[string]int)}
}

func (s *InMemoryRatingStore) Upsert(_ context.Context, scope Scope, userID string, rating int) error {
	if rating < 1 || rating > 10 {
		return ErrRatingOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.votes[scope] == nil {
		s.votes[scope] = make(map[string]int)
	}
	s.votes[scope][userID] = rating
	return nil
}

func (s *InMemoryRatingStore) Delete(_ context.Context, scope Scope, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.votes[scope]
	if users == nil {
		return false, nil
	}
	if _, ok := users[userID]; !ok {
		return false, nil
	}
	delete(users, userID)
	return true, nil
}

func (s *InMemoryRatingStore) UserRating(_ context.Context, scope Scope, userID string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := s.votes[scope]
	if users == nil {
		return 0, false, nil
	}
	r, ok := users[userID]
	return r, ok, nil
}

func (s *InMemoryRatingStore) Votes(_ context.Context, scope Scope) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := s.votes[scope]
	if len(users) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(users))
	for _, r := range users {
		out = append(out, r)
	}
	return out, nil
}

func (s *InMemoryRatingStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, users := range s.votes {
		n += int64(len(users))
	}
	return n, nil
}
