package testutil

import (
	"context"
	"sync"

	"github.com/taxreform/simulator/internal/domain/rules"
	ierr "github.com/taxreform/simulator/internal/errors"
)

// InMemoryRulesStore implements rules.Repository keyed by path
type InMemoryRulesStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewInMemoryRulesStore() *InMemoryRulesStore {
	return &InMemoryRulesStore{
		docs: make(map[string][]byte),
	}
}

func (s *InMemoryRulesStore) Load(ctx context.Context, path string) (*rules.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[path]
	if !ok {
		return nil, ierr.NewErrorf("rule document %s not found", path).
			WithHintf("Rule document %s not found", path).
			Mark(ierr.ErrNotFound)
	}

	doc := &rules.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Rule document %s is malformed", path).
			Mark(ierr.ErrValidation)
	}
	return doc, nil
}

func (s *InMemoryRulesStore) Save(ctx context.Context, path string, doc *rules.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode rule document").
			Mark(ierr.ErrSystem)
	}
	s.Put(path, data)
	return nil
}

// Put stores raw document content at path, malformed content included
func (s *InMemoryRulesStore) Put(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = data
}

// Has reports whether a document is stored at path
func (s *InMemoryRulesStore) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[path]
	return ok
}

// Clear removes all documents from the store
func (s *InMemoryRulesStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string][]byte)
}
