// Package compare keeps the list of schools a user picked for a
// side-by-side comparison.
package compare

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/school"
)

const (
	// StorageKey is the key the list is persisted under.
	StorageKey = "compareList"
	// MaxItems is the maximum number of schools that can be compared at once.
	MaxItems = 4
)

var (
	// errors
	ErrLimitReached = errors.New("you can only compare up to 4 schools")
)

// EventKind tells what happened to the list.
type EventKind string

const (
	EventAdded        EventKind = "added"         // a school was appended
	EventRemoved      EventKind = "removed"       // a remove ran, matching or not
	EventCleared      EventKind = "cleared"       // the list was emptied
	EventLimitReached EventKind = "limit_reached" // an add was rejected, the list is full
)

// Event is sent to listeners after every operation that changed the list
// or was rejected by it.
type Event struct {
	Kind   EventKind
	School school.School // added | limit_reached
	ID     string        // removed
	Items  []school.School
}

// Listener reacts to Events. It must not retain Event.Items beyond the call
// if it intends to mutate it.
type Listener func(Event)

// Store is the comparison list: at most MaxItems schools, unique by ID,
// in insertion order. It is the only writer of StorageKey in its KeyValueStore.
type Store struct {
	kv     core.KeyValueStore
	logger core.Logger

	mu        sync.Mutex
	items     []school.School
	listeners map[int]Listener
	nextLsnID int
}

// NewStore restores the list from kv. A missing, unreadable or malformed
// value yields an empty list.
func NewStore(kv core.KeyValueStore, logger core.Logger) *Store {
	s := &Store{
		kv:        kv,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
	s.items = s.load()
	return s
}

func (s *Store) load() []school.School {
	raw, ok, err := s.kv.Get(StorageKey)
	if err != nil {
		s.logger.Debug("compare: reading stored list", errors.Wrap(err, "reading "+StorageKey))
		return []school.School{}
	}
	if !ok || raw == "" {
		return []school.School{}
	}

	var stored []school.School
	if err = json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Debug("compare: discarding malformed stored list", errors.Wrap(err, "decoding "+StorageKey))
		return []school.School{}
	}
	return sanitize(stored)
}

// sanitize drops entries without id and duplicates, and truncates to MaxItems.
func sanitize(stored []school.School) []school.School {
	items := make([]school.School, 0, MaxItems)
	seen := make(map[string]struct{}, len(stored))
	for _, sch := range stored {
		if len(items) == MaxItems {
			break
		}
		if sch.ID == "" {
			continue
		}
		if _, dup := seen[sch.ID]; dup {
			continue
		}
		seen[sch.ID] = struct{}{}
		items = append(items, sch)
	}
	return items
}

// persist writes the list. Failures are logged only: the in-memory list stays authoritative.
func (s *Store) persist() {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.logger.Error("compare: encoding list", errors.Wrap(err, "encoding "+StorageKey))
		return
	}
	if err = s.kv.Set(StorageKey, string(data)); err != nil {
		s.logger.Error("compare: persisting list", errors.Wrap(err, "writing "+StorageKey))
	}
}

func (s *Store) indexOf(id string) int {
	for i, sch := range s.items {
		if sch.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []school.School {
	items := make([]school.School, 0, len(s.items))
	for _, sch := range s.items {
		items = append(items, sch.Clone())
	}
	return items
}

// Add appends sch to the list. Adding a school that is already listed is a no-op.
// ErrLimitReached is returned, and the list left unchanged, when it is full.
func (s *Store) Add(sch school.School) error {
	if err := sch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.indexOf(sch.ID) >= 0 {
		s.mu.Unlock()
		return nil
	}
	if len(s.items) >= MaxItems {
		evt := Event{Kind: EventLimitReached, School: sch, Items: s.snapshot()}
		s.mu.Unlock()
		s.notify(evt)
		return ErrLimitReached
	}
	s.items = append(s.items, sch.Clone())
	s.persist()
	evt := Event{Kind: EventAdded, School: sch, Items: s.snapshot()}
	s.mu.Unlock()

	s.notify(evt)
	return nil
}

// Remove drops the school with the given id. The list is persisted even if
// no school matched.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	kept := make([]school.School, 0, len(s.items))
	for _, sch := range s.items {
		if sch.ID != id {
			kept = append(kept, sch)
		}
	}
	s.items = kept
	s.persist()
	evt := Event{Kind: EventRemoved, ID: id, Items: s.snapshot()}
	s.mu.Unlock()

	s.notify(evt)
}

// Clear empties the list.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = []school.School{}
	s.persist()
	evt := Event{Kind: EventCleared, Items: s.snapshot()}
	s.mu.Unlock()

	s.notify(evt)
}

// List returns a deep copy of the listed schools, in insertion order.
func (s *Store) List() []school.School {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Len returns the number of listed schools.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Contains reports whether the school with the given id is listed.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// Subscribe registers l for all future Events and returns a func that unregisters it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextLsnID
	s.nextLsnID++
	s.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// notify runs outside the lock so listeners may call back into the Store.
func (s *Store) notify(evt Event) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	lsns := make([]Listener, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		lsns = append(lsns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, l := range lsns {
		l(evt)
	}
}
