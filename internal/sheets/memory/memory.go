package memory

import (
	"context"
	"fmt"
	"sync"

	"subtrack/internal/core"
)

// Store keeps subscriptions in memory. Used for local development and
// tests where neither SQLite nor Google Sheets is wanted.
type Store struct {
	mu    sync.Mutex
	items map[string]core.Subscription
	order []string
}

func New() *Store {
	return &Store{items: make(map[string]core.Subscription)}
}

// Upsert stores the subscription and returns a synthetic row reference.
func (s *Store) Upsert(_ context.Context, sub core.Subscription) (string, error) {
	if err := sub.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[sub.ID]; !ok {
		s.order = append(s.order, sub.ID)
	}
	s.items[sub.ID] = sub
	return fmt.Sprintf("mem:%s", sub.ID), nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return nil
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListSubscriptions returns the user's subscriptions in insertion order.
func (s *Store) ListSubscriptions(_ context.Context, userID string) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Subscription
	for _, id := range s.order {
		sub := s.items[id]
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}
