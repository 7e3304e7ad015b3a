package sfn

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrShape        = errors.New("invalid parameter shape")
	ErrFixedField   = errors.New("field is fixed")
	ErrUnknownField = errors.New("unknown field")
)

// Inputs are the construction inputs of one assembly.
type Inputs struct {
	// BasePath roots the path projection of path fields. Empty disables it.
	BasePath JSONPath

	// Values holds explicit values keyed by dotted field name
	// (e.g. "Payload.RuleName").
	Values map[string]Value
}

// Assemble builds the parameter tree of kind from in.
func Assemble(kind TaskKind, in Inputs) (*Tree, error) {
	tmpl, err := TemplateFor(kind)
	if err != nil {
		return nil, err
	}
	if in.BasePath != "" {
		if err := in.BasePath.validate(); err != nil {
			return nil, fmt.Errorf("assembling %s: base path: %w", kind, err)
		}
	}

	a := assembler{in: in, used: map[string]bool{}}
	tree, err := a.fields(tmpl.Fields, "", in.BasePath)
	if err != nil {
		return nil, fmt.Errorf("assembling %s: %w", kind, err)
	}

	var unknown []string
	for name := range in.Values {
		if !a.used[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("assembling %s: %w: %v", kind, ErrUnknownField, unknown)
	}
	return tree, nil
}

type assembler struct {
	in   Inputs
	used map[string]bool
}

func (a *assembler) fields(rules []FieldRule, prefix string, base JSONPath) (*Tree, error) {
	tree := &Tree{}
	for _, r := range rules {
		name := joinName(prefix, r.Name)
		v, err := a.resolve(r, name, base)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		if err := tree.Set(r.Name, v); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// resolve returns nil for an omitted optional field.
func (a *assembler) resolve(r FieldRule, name string, base JSONPath) (Value, error) {
	explicit, supplied := a.in.Values[name]
	if supplied {
		a.used[name] = true
	}

	switch {
	case r.Fixed != nil:
		if supplied {
			return nil, fmt.Errorf("%w: %s", ErrFixedField, name)
		}
		return r.Fixed, nil

	case len(r.Fields) > 0:
		if supplied {
			return nil, fmt.Errorf("%w: %s is an object; set its fields instead", ErrShape, name)
		}
		var sub JSONPath
		if base != "" {
			sub = base.Join(r.Name)
		}
		child, err := a.fields(r.Fields, name, sub)
		if err != nil {
			return nil, err
		}
		if child.Len() == 0 && !r.Required {
			return nil, nil
		}
		return child, nil
	}

	if supplied {
		if explicit == nil {
			return nil, fmt.Errorf("%w: %s has a nil value", ErrShape, name)
		}
		if IsPath(explicit) && !r.Path {
			return nil, fmt.Errorf("%w: %s accepts only a literal", ErrShape, name)
		}
		if !IsPath(explicit) && !r.Literal {
			return nil, fmt.Errorf("%w: %s accepts only a path", ErrShape, name)
		}
		return explicit, nil
	}
	if base != "" && r.Path {
		return base.Join(r.Name), nil
	}
	if r.Default != nil {
		return r.Default, nil
	}
	if r.Required {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	return nil, nil
}
