package sfn

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field is one named entry of a Tree.
type Field struct {
	Name  string
	Value Value
}

// Tree is an ordered parameter object. Keys of path values are written with
// the ".$" suffix when serialized.
type Tree struct {
	fields []Field
}

func (*Tree) isValue() {}

// NewTree returns a tree holding fields in order.
func NewTree(fields ...Field) (*Tree, error) {
	t := &Tree{}
	for _, f := range fields {
		if err := t.Set(f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Set appends a field. A name may appear only once and never carries the
// path suffix itself.
func (t *Tree) Set(name string, v Value) error {
	if name == "" {
		return fmt.Errorf("%w: empty field name", ErrShape)
	}
	if strings.HasSuffix(name, PathSuffix) {
		return fmt.Errorf("%w: field %q carries the reserved %q suffix", ErrShape, name, PathSuffix)
	}
	if v == nil {
		return fmt.Errorf("%w: field %q has no value", ErrShape, name)
	}
	if _, ok := t.Get(name); ok {
		return fmt.Errorf("%w: field %q set twice", ErrShape, name)
	}
	switch p := v.(type) {
	case JSONPath:
		if err := p.validate(); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	case ContextPath:
		if err := p.validate(); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	case literal:
		if p.err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrShape, name, p.err)
		}
	}
	t.fields = append(t.fields, Field{Name: name, Value: v})
	return nil
}

// Get returns the value stored under name.
func (t *Tree) Get(name string) (Value, bool) {
	if t == nil {
		return nil, false
	}
	for _, f := range t.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Len returns the number of top-level fields.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.fields)
}

// Fields returns a copy of the top-level fields in order.
func (t *Tree) Fields() []Field {
	if t == nil {
		return nil
	}
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// ContainsPath reports whether the path p appears anywhere in the tree.
func (t *Tree) ContainsPath(p Value) bool {
	if t == nil || !IsPath(p) {
		return false
	}
	for _, f := range t.fields {
		switch v := f.Value.(type) {
		case JSONPath, ContextPath:
			if v == p {
				return true
			}
		case *Tree:
			if v.ContainsPath(p) {
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy of the tree. Literals are immutable and shared.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	out := &Tree{fields: make([]Field, len(t.fields))}
	for i, f := range t.fields {
		if sub, ok := f.Value.(*Tree); ok {
			f.Value = sub.Clone()
		}
		out.fields[i] = f
	}
	return out
}

func (t *Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range t.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key := f.Name
		if IsPath(f.Value) {
			key += PathSuffix
		}
		if err := writeMember(&buf, key, f.Value); err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", f.Name, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, v any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}
