package docstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
)

type memoryCollection struct {
	docs  map[string][]byte
	order []string
}

// MemoryStore keeps documents in process memory; it is the default backend for development & tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// collection must be called with the write lock held.
func (s *MemoryStore) collection(name string) *memoryCollection {
	coll, ok := s.collections[name]
	if !ok {
		coll = &memoryCollection{docs: make(map[string][]byte)}
		s.collections[name] = coll
	}
	return coll
}

func (s *MemoryStore) Insert(_ context.Context, collection, id string, doc interface{}) error {
	raw, err := encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collection(collection)
	if _, exists := coll.docs[id]; exists {
		return ErrDuplicateID
	}
	coll.docs[id] = raw
	coll.order = append(coll.order, id)
	return nil
}

func (s *MemoryStore) Put(_ context.Context, collection, id string, doc interface{}) error {
	raw, err := encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collection(collection)
	if _, exists := coll.docs[id]; !exists {
		coll.order = append(coll.order, id)
	}
	coll.docs[id] = raw
	return nil
}

func (s *MemoryStore) Get(_ context.Context, collection, id string, out interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return ErrNotFound
	}
	raw, ok := coll.docs[id]
	if !ok {
		return ErrNotFound
	}
	return errors.Wrap(json.Unmarshal(raw, out), "decoding document")
}

func (s *MemoryStore) FindOne(_ context.Context, collection string, out interface{}, filters ...Filter) error {
	docs, err := s.find(collection, filters, 1)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return ErrNotFound
	}
	return errors.Wrap(json.Unmarshal(docs[0], out), "decoding document")
}

func (s *MemoryStore) Find(_ context.Context, collection string, out interface{}, filters ...Filter) error {
	docs, err := s.find(collection, filters, 0)
	if err != nil {
		return err
	}
	return decodeList(docs, out)
}

// find returns at most limit matching documents; limit 0 means no limit.
func (s *MemoryStore) find(collection string, filters []Filter, limit int) ([][]byte, error) {
	if err := checkFilters(filters); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	var docs [][]byte
	for _, id := range coll.order {
		raw := coll.docs[id]
		ok, err := match(raw, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			docs = append(docs, raw)
			if limit > 0 && len(docs) == limit {
				break
			}
		}
	}
	return docs, nil
}

func (s *MemoryStore) Close() error { return nil }
