package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/emrlaunch/emrlaunch/internal/sfn"
)

var (
	ErrEmptyChain    = errors.New("chain has no tasks")
	ErrDuplicateName = errors.New("duplicate state name")
)

// FailureResultPath is where a caught error is recorded before the chain
// moves to its failure state.
const FailureResultPath = "$.Error"

type link struct {
	name string
	task sfn.Task
}

// Chain links tasks in order. The zero value is not usable; call NewChain.
type Chain struct {
	comment string
	timeout int
	links   []link
	failure *failState
}

type failState struct {
	name  string
	state sfn.Fail
}

func NewChain(comment string) *Chain {
	return &Chain{comment: comment}
}

// Add appends a task under name.
func (c *Chain) Add(name string, task sfn.Task) *Chain {
	c.links = append(c.links, link{name: name, task: task})
	return c
}

// OnFailure routes every task error to a Fail state named name.
func (c *Chain) OnFailure(name string, state sfn.Fail) *Chain {
	c.failure = &failState{name: name, state: state}
	return c
}

// WithTimeout sets the execution-wide timeout.
func (c *Chain) WithTimeout(seconds int) *Chain {
	c.timeout = seconds
	return c
}

// Build links every task to its successor and returns the state machine.
func (c *Chain) Build() (StateMachine, error) {
	if len(c.links) == 0 {
		return StateMachine{}, ErrEmptyChain
	}
	seen := map[string]bool{}
	names := make([]string, 0, len(c.links)+1)
	for _, l := range c.links {
		names = append(names, l.name)
	}
	if c.failure != nil {
		names = append(names, c.failure.name)
	}
	for _, n := range names {
		if n == "" {
			return StateMachine{}, fmt.Errorf("building state machine: %w: empty state name", sfn.ErrMissingField)
		}
		if seen[n] {
			return StateMachine{}, fmt.Errorf("building state machine: %w: %q", ErrDuplicateName, n)
		}
		seen[n] = true
	}

	sm := StateMachine{
		Comment:        c.comment,
		StartAt:        c.links[0].name,
		TimeoutSeconds: c.timeout,
	}
	for i, l := range c.links {
		task := l.task.WithNext("")
		if i+1 < len(c.links) {
			task = task.WithNext(c.links[i+1].name)
		}
		if c.failure != nil {
			task = task.WithCatch(sfn.Catcher{
				ErrorEquals: []string{sfn.ErrorAll},
				Next:        c.failure.name,
				ResultPath:  FailureResultPath,
			})
		}
		sm.tasks = append(sm.tasks, task)
		sm.states = append(sm.states, namedState{name: l.name, state: task})
	}
	if c.failure != nil {
		sm.states = append(sm.states, namedState{name: c.failure.name, state: c.failure.state})
	}
	return sm, nil
}

type namedState struct {
	name  string
	state json.Marshaler
}

// StateMachine is a complete definition ready to be serialized.
type StateMachine struct {
	Comment        string
	StartAt        string
	TimeoutSeconds int

	states []namedState
	tasks  []sfn.Task
}

// StateNames returns the state names in definition order.
func (m StateMachine) StateNames() []string {
	out := make([]string, 0, len(m.states))
	for _, s := range m.states {
		out = append(out, s.name)
	}
	return out
}

// Tasks returns the linked task states in order.
func (m StateMachine) Tasks() []sfn.Task {
	return append([]sfn.Task(nil), m.tasks...)
}

// Policy is the IAM policy the state machine's role needs.
func (m StateMachine) Policy() sfn.PolicyDocument {
	return sfn.PolicyFor(m.tasks...)
}

func (m StateMachine) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if m.Comment != "" {
		if err := member(&buf, "Comment", m.Comment); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}
	if err := member(&buf, "StartAt", m.StartAt); err != nil {
		return nil, err
	}
	if m.TimeoutSeconds > 0 {
		buf.WriteByte(',')
		if err := member(&buf, "TimeoutSeconds", m.TimeoutSeconds); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`,"States":{`)
	for i, s := range m.states {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := member(&buf, s.name, s.state); err != nil {
			return nil, fmt.Errorf("encoding state %q: %w", s.name, err)
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func member(buf *bytes.Buffer, key string, v any) error {
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
