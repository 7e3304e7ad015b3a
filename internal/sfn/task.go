package sfn

import (
	"bytes"
	"fmt"
)

// State type and field names of the Amazon States Language.
const (
	StateTypeTask    = "Task"
	StateTypeSucceed = "Succeed"
	StateTypeFail    = "Fail"

	FieldType             = "Type"
	FieldComment          = "Comment"
	FieldResource         = "Resource"
	FieldParameters       = "Parameters"
	FieldInputPath        = "InputPath"
	FieldOutputPath       = "OutputPath"
	FieldResultPath       = "ResultPath"
	FieldTimeoutSeconds   = "TimeoutSeconds"
	FieldHeartbeatSeconds = "HeartbeatSeconds"
	FieldRetry            = "Retry"
	FieldCatch            = "Catch"
	FieldNext             = "Next"
	FieldEnd              = "End"
	FieldError            = "Error"
	FieldCause            = "Cause"
)

// ErrorAll matches every error name in Retry and Catch.
const ErrorAll = "States.ALL"

// Retrier is a Retry entry interpreted by the engine.
type Retrier struct {
	ErrorEquals     []string `json:"ErrorEquals"`
	IntervalSeconds int      `json:"IntervalSeconds,omitempty"`
	MaxAttempts     int      `json:"MaxAttempts,omitempty"`
	BackoffRate     float64  `json:"BackoffRate,omitempty"`
}

// Catcher is a Catch entry routing failures to another state.
type Catcher struct {
	ErrorEquals []string `json:"ErrorEquals"`
	Next        string   `json:"Next"`
	ResultPath  string   `json:"ResultPath,omitempty"`
}

// Task is an immutable Task state. Linkage methods return modified copies.
type Task struct {
	kind       TaskKind
	resource   Resource
	parameters *Tree
	inputPath  string
	outputPath string
	resultPath string

	comment          string
	next             string
	timeoutSeconds   int
	heartbeatSeconds int
	retry            []Retrier
	catch            []Catcher
	policy           []PolicyStatement
}

// TaskPaths are the optional input/output projections of a task.
type TaskPaths struct {
	InputPath  string
	OutputPath string
	ResultPath string
}

// NewTask validates and returns a terminal task.
func NewTask(kind TaskKind, resource Resource, params *Tree, paths TaskPaths, policy ...PolicyStatement) (Task, error) {
	if resource == nil || resource.ARN() == "" {
		return Task{}, fmt.Errorf("building %s task: %w: resource", kind, ErrMissingField)
	}
	for _, p := range [][2]string{
		{FieldInputPath, paths.InputPath},
		{FieldOutputPath, paths.OutputPath},
		{FieldResultPath, paths.ResultPath},
	} {
		if p[1] == "" {
			continue
		}
		if err := ValidatePath(p[1]); err != nil {
			return Task{}, fmt.Errorf("building %s task: %s: %w", kind, p[0], err)
		}
	}
	if resource.Pattern() == WaitForTaskToken && !params.ContainsPath(TaskToken) {
		return Task{}, fmt.Errorf("building %s task: %w: %s requires %s in parameters",
			kind, ErrShape, WaitForTaskToken, TaskToken)
	}
	return Task{
		kind:       kind,
		resource:   resource,
		parameters: params.Clone(),
		inputPath:  paths.InputPath,
		outputPath: paths.OutputPath,
		resultPath: paths.ResultPath,
		policy:     append([]PolicyStatement(nil), policy...),
	}, nil
}

func (t Task) Kind() TaskKind     { return t.kind }
func (t Task) Resource() Resource { return t.resource }
func (t Task) Parameters() *Tree  { return t.parameters.Clone() }
func (t Task) InputPath() string  { return t.inputPath }
func (t Task) OutputPath() string { return t.outputPath }
func (t Task) ResultPath() string { return t.resultPath }
func (t Task) Next() string       { return t.next }
func (t Task) IsTerminal() bool   { return t.next == "" }
func (t Task) Retry() []Retrier   { return append([]Retrier(nil), t.retry...) }
func (t Task) Catch() []Catcher   { return append([]Catcher(nil), t.catch...) }
func (t Task) Policy() []PolicyStatement {
	return append([]PolicyStatement(nil), t.policy...)
}

// WithNext links the task to a successor state; an empty name makes it terminal.
func (t Task) WithNext(name string) Task {
	t.next = name
	return t
}

func (t Task) WithComment(comment string) Task {
	t.comment = comment
	return t
}

// WithTimeout declares execution-time limits for the engine to enforce.
func (t Task) WithTimeout(timeoutSeconds, heartbeatSeconds int) Task {
	t.timeoutSeconds = timeoutSeconds
	t.heartbeatSeconds = heartbeatSeconds
	return t
}

func (t Task) WithRetry(r ...Retrier) Task {
	t.retry = append(append([]Retrier(nil), t.retry...), r...)
	return t
}

func (t Task) WithCatch(c ...Catcher) Task {
	t.catch = append(append([]Catcher(nil), t.catch...), c...)
	return t
}

func (t Task) MarshalJSON() ([]byte, error) {
	if t.resource == nil {
		return nil, fmt.Errorf("encoding task: %w: resource", ErrMissingField)
	}
	o := newObject()
	o.add(FieldType, StateTypeTask)
	if t.comment != "" {
		o.add(FieldComment, t.comment)
	}
	o.add(FieldResource, t.resource.ARN())
	if t.parameters != nil {
		o.add(FieldParameters, t.parameters)
	}
	if t.inputPath != "" {
		o.add(FieldInputPath, t.inputPath)
	}
	if t.outputPath != "" {
		o.add(FieldOutputPath, t.outputPath)
	}
	if t.resultPath != "" {
		o.add(FieldResultPath, t.resultPath)
	}
	if t.timeoutSeconds > 0 {
		o.add(FieldTimeoutSeconds, t.timeoutSeconds)
	}
	if t.heartbeatSeconds > 0 {
		o.add(FieldHeartbeatSeconds, t.heartbeatSeconds)
	}
	if len(t.retry) > 0 {
		o.add(FieldRetry, t.retry)
	}
	if len(t.catch) > 0 {
		o.add(FieldCatch, t.catch)
	}
	if t.next != "" {
		o.add(FieldNext, t.next)
	} else {
		o.add(FieldEnd, true)
	}
	return o.bytes()
}

// Succeed is a terminal success state.
type Succeed struct {
	Comment string
}

func (s Succeed) MarshalJSON() ([]byte, error) {
	o := newObject()
	o.add(FieldType, StateTypeSucceed)
	if s.Comment != "" {
		o.add(FieldComment, s.Comment)
	}
	return o.bytes()
}

// Fail is a terminal failure state.
type Fail struct {
	Comment string
	Error   string
	Cause   string
}

func (f Fail) MarshalJSON() ([]byte, error) {
	o := newObject()
	o.add(FieldType, StateTypeFail)
	if f.Comment != "" {
		o.add(FieldComment, f.Comment)
	}
	if f.Error != "" {
		o.add(FieldError, f.Error)
	}
	if f.Cause != "" {
		o.add(FieldCause, f.Cause)
	}
	return o.bytes()
}

// object writes JSON members in insertion order.
type object struct {
	buf bytes.Buffer
	n   int
	err error
}

func newObject() *object {
	o := &object{}
	o.buf.WriteByte('{')
	return o
}

func (o *object) add(key string, v any) {
	if o.err != nil {
		return
	}
	if o.n > 0 {
		o.buf.WriteByte(',')
	}
	o.n++
	if err := writeMember(&o.buf, key, v); err != nil {
		o.err = fmt.Errorf("encoding %s: %w", key, err)
	}
}

func (o *object) bytes() ([]byte, error) {
	if o.err != nil {
		return nil, o.err
	}
	o.buf.WriteByte('}')
	return o.buf.Bytes(), nil
}
