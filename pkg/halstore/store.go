package halstore

import "sync"

// Entity is anything the identity store can hold by canonical identifier.
type Entity interface {
	Identifier() string
}

// Store is the identity map: one materialized instance per canonical
// identifier. The last save wins for any given key and entries never
// expire on their own; their lifetime is that of the owning Datastore.
type Store struct {
	mu       sync.RWMutex
	entities map[string]Entity
}

func NewStore() *Store {
	return &Store{
		entities: map[string]Entity{},
	}
}

// Save upserts the entity at its current identifier, unconditionally
// overwriting any prior entry at that key.
func (s *Store) Save(e Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entities[e.Identifier()] = e
}

// SaveAll saves each entity in the given order, so later entries win
// over earlier ones sharing a key.
func (s *Store) SaveAll(entities ...Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entities {
		s.entities[e.Identifier()] = e
	}
}

// Get returns the cached entity for an identifier, or nil. It never
// fails and never triggers a fetch.
func (s *Store) Get(identifier string) Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.entities[identifier]
}

// Model returns the cached entity for an identifier if it is a model.
func (s *Store) Model(identifier string) *Model {
	m, _ := s.Get(identifier).(*Model)
	return m
}

// Document returns the cached entity for an identifier if it is a document.
func (s *Store) Document(identifier string) *Document {
	d, _ := s.Get(identifier).(*Document)
	return d
}

func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entities)
}

// ForEach calls the callback for every cached entity. The snapshot is
// taken under the read lock; the callback runs outside of it.
func (s *Store) ForEach(callback func(identifier string, e Entity)) {
	s.mu.RLock()
	snapshot := make(map[string]Entity, len(s.entities))
	for k, v := range s.entities {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	for k, v := range snapshot {
		callback(k, v)
	}
}
