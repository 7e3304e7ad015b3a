package sfn

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Value is a parameter value: a Literal, a JSONPath, a ContextPath or a
// nested *Tree. Paths are resolved by the engine at execution time.
type Value interface {
	isValue()
}

// literal holds the encoded form of its payload, taken when it is created,
// so later changes to the caller's maps or slices do not reach built tasks.
type literal struct {
	raw string
	err error
}

func (literal) isValue() {}

func (l literal) MarshalJSON() ([]byte, error) {
	if l.err != nil {
		return nil, l.err
	}
	return []byte(l.raw), nil
}

// Literal wraps an author-time value. Numbers and booleans are emitted as-is.
// A value that cannot be encoded is rejected when it is set on a Tree.
func Literal(v any) Value {
	if t, ok := v.(*Tree); ok {
		return t
	}
	b, err := json.Marshal(v)
	if err != nil {
		return literal{err: err}
	}
	return literal{raw: string(b)}
}

// JSONPath references the task's current data scope, e.g. "$.ClusterConfiguration".
type JSONPath string

func (JSONPath) isValue() {}

// Join appends a relative field path.
func (p JSONPath) Join(field string) JSONPath {
	return JSONPath(string(p) + "." + field)
}

// ContextPath references the execution context object, e.g. "$$.Task.Token".
type ContextPath string

func (ContextPath) isValue() {}

const (
	ExecutionInput ContextPath = "$$.Execution.Input"
	TaskToken      ContextPath = "$$.Task.Token"
)

// PathSuffix marks a parameter key whose value is a path.
const PathSuffix = ".$"

var ErrInvalidPath = errors.New("invalid path")

func (p JSONPath) validate() error {
	s := string(p)
	if !strings.HasPrefix(s, "$") || strings.HasPrefix(s, "$$") {
		return fmt.Errorf("%w: %q is not a data path", ErrInvalidPath, s)
	}
	return nil
}

func (p ContextPath) validate() error {
	if !strings.HasPrefix(string(p), "$$") {
		return fmt.Errorf("%w: %q is not a context path", ErrInvalidPath, string(p))
	}
	return nil
}

// IsPath reports whether v is resolved at execution time.
func IsPath(v Value) bool {
	switch v.(type) {
	case JSONPath, ContextPath:
		return true
	}
	return false
}

// ValidatePath checks that s is a usable data path (used for InputPath,
// OutputPath and ResultPath).
func ValidatePath(s string) error {
	return JSONPath(s).validate()
}
