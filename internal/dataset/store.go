package dataset

import (
	"sync"

	"github.com/google/uuid"
)

// Store holds the currently uploaded dataset for the process. It replaces
// an ambient global with an injected handle that has clear reset
// semantics: uploading replaces the previous dataset wholesale.
type Store struct {
	mu      sync.RWMutex
	current *Dataset
	id      uuid.UUID
}

// NewStore creates an empty dataset store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces the current dataset and returns its new handle ID.
func (s *Store) Set(d *Dataset) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = d
	s.id = uuid.New()
	return s.id
}

// Get returns the current dataset and its ID, or (nil, uuid.Nil) when
// nothing has been uploaded.
func (s *Store) Get() (*Dataset, uuid.UUID) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.id
}

// Reset discards the current dataset.
func (s *Store) Reset() {
	s.mu.Lock()
	s.current = nil
	s.id = uuid.Nil
	s.mu.Unlock()
}
