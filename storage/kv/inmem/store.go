// Package inmemkv is a process-local core.KeyValueStore.
package inmemkv

import (
	"sync"

	"github.com/trezcool/schoolhub/core"
)

type Store struct {
	mutex sync.RWMutex
	items map[string]string
}

var _ core.KeyValueStore = (*Store)(nil)

// New returns a Store holding the given items.
func New(items ...map[string]string) *Store {
	s := &Store{items: make(map[string]string)}
	for _, m := range items {
		for k, v := range m {
			s.items[k] = v
		}
	}
	return s
}

func (s *Store) Get(key string) (string, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *Store) Set(key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.items[key] = value
	return nil
}

func (s *Store) Remove(key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.items, key)
	return nil
}

// Snapshot returns a copy of every stored item.
func (s *Store) Snapshot() map[string]string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	items := make(map[string]string, len(s.items))
	for k, v := range s.items {
		items[k] = v
	}
	return items
}
