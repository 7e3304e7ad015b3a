package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store used by tests and dry runs.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte

	// Track calls
	Puts []Key
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string][]byte{}}
}

func (m *MemoryStore) Get(_ context.Context, key Key) (Document, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	data, ok := m.docs[key.Path()]
	m.mu.Unlock()
	if !ok {
		return nil, notFound(key)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return doc, nil
}

// Put stores a copy of doc.
func (m *MemoryStore) Put(_ context.Context, key Key, doc Document) error {
	if err := key.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key.Path()] = data
	m.Puts = append(m.Puts, key)
	return nil
}

func (m *MemoryStore) List(_ context.Context, kind Kind, namespace string) ([]string, error) {
	prefix := Key{Kind: kind, Namespace: namespace}.Path() + "/"
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for p := range m.docs {
		if len(p) > len(prefix) && p[:len(prefix)] == prefix {
			names = append(names, p[len(prefix):])
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryStore) Close(context.Context) error { return nil }
