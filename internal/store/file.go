package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const fileExt = ".yaml"

// FileStore keeps each document as a YAML file under a root directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) file(key Key) string {
	return filepath.Join(s.dir, filepath.FromSlash(key.Path())+fileExt)
}

func (s *FileStore) Get(_ context.Context, key Key) (Document, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.file(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	return doc, nil
}

// ParseDocument decodes a YAML or JSON object.
func ParseDocument(data []byte) (Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return Document{}, nil
	}
	return Document(normalize(raw).(map[string]any)), nil
}

func (s *FileStore) Put(_ context.Context, key Key, doc Document) error {
	if err := key.Validate(); err != nil {
		return err
	}
	path := s.file(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *FileStore) List(_ context.Context, kind Kind, namespace string) ([]string, error) {
	dir := filepath.Join(s.dir, filepath.FromSlash(Key{Kind: kind, Namespace: namespace}.Path()))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Close(context.Context) error { return nil }
