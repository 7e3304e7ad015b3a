// Package store keeps EMR profiles and cluster configurations: the named
// documents the load-cluster-configuration function reads at execution time.
package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Kind groups documents of one shape.
type Kind string

const (
	KindClusterConfiguration Kind = "cluster_configurations"
	KindProfile              Kind = "emr_profiles"
)

// Root prefixes every document path.
const Root = "emr_launch"

var (
	ErrNotFound   = errors.New("document not found")
	ErrInvalidKey = errors.New("invalid document key")
)

// Key identifies a document.
type Key struct {
	Kind      Kind
	Namespace string
	Name      string
}

// Path is the slash-separated location of the document, shared by every
// backend: emr_launch/<kind>/<namespace>/<name>.
func (k Key) Path() string {
	return path.Join(Root, string(k.Kind), k.Namespace, k.Name)
}

func (k Key) String() string { return k.Path() }

// Validate rejects keys that would escape their namespace.
func (k Key) Validate() error {
	switch k.Kind {
	case KindClusterConfiguration, KindProfile:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidKey, k.Kind)
	}
	for _, part := range []string{k.Namespace, k.Name} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return fmt.Errorf("%w: %q", ErrInvalidKey, k.Path())
		}
	}
	return nil
}

// ParseKind accepts the kind names used on the command line.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "cluster", "cluster-configuration", string(KindClusterConfiguration):
		return KindClusterConfiguration, nil
	case "profile", "emr-profile", string(KindProfile):
		return KindProfile, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidKey, s)
}

// Document is a stored JSON object. Nested objects are map[string]any.
type Document map[string]any

// Object returns v as an object whichever map form a decoder produced.
func Object(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Document:
		return t, true
	}
	return nil, false
}

func normalize(v any) any {
	switch t := v.(type) {
	case Document:
		return normalize(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}

// Store reads and writes documents.
type Store interface {
	Get(ctx context.Context, key Key) (Document, error)
	Put(ctx context.Context, key Key, doc Document) error
	// List returns the names in a namespace, sorted.
	List(ctx context.Context, kind Kind, namespace string) ([]string, error)
	Close(ctx context.Context) error
}

func notFound(key Key) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key.Path())
}
