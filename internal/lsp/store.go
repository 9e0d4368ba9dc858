package lsp

import "sync"

// Store holds the latest analysis of every open document.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Analysis // uri -> analysis
}

func NewStore() *Store {
	return &Store{docs: map[string]*Analysis{}}
}

func (s *Store) Set(uri string, an *Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = an
}

func (s *Store) Get(uri string) (*Analysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	an, ok := s.docs[uri]
	return an, ok
}

func (s *Store) Delete(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}
