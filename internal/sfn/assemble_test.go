package sfn

import (
	"errors"
	"testing"
)

func TestAssemble_UnknownKind(t *testing.T) {
	_, err := Assemble("launch-rocket", Inputs{})
	if !errors.Is(err, ErrUnknownTaskKind) {
		t.Errorf("err = %v, want ErrUnknownTaskKind", err)
	}
}

func TestAssemble_LiteralWinsOverPathDefault(t *testing.T) {
	tree, err := Assemble(KindStartExecution, Inputs{Values: map[string]Value{
		"StateMachineArn": Literal("arn"),
		"Input":           Literal(map[string]any{"a": 1}),
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertJSON(t, tree, `{"StateMachineArn": "arn", "Input": {"a": 1}}`)
}

func TestAssemble_ScalarsPassThrough(t *testing.T) {
	tree, err := Assemble(KindAddStep, Inputs{Values: map[string]Value{
		"ClusterId": Literal("j-1"),
		"Step":      Literal(map[string]any{"Count": 3, "Enabled": false, "Ratio": 0.5}),
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := tree.MarshalJSON()
	if err != nil {
		t.Fatalf("marshaling: %v", err)
	}
	want := `{"ClusterId":"j-1","Step":{"Count":3,"Enabled":false,"Ratio":0.5}}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}

func TestAssemble_ShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		kind TaskKind
		in   Inputs
		want error
	}{
		{
			name: "literal for path-only field",
			kind: KindCreateCluster,
			in:   Inputs{BasePath: "$.C", Values: map[string]Value{"Name": Literal("x")}},
			want: ErrShape,
		},
		{
			name: "path for literal-only field",
			kind: KindStartExecution,
			in:   Inputs{Values: map[string]Value{"StateMachineArn": JSONPath("$.Arn")}},
			want: ErrShape,
		},
		{
			name: "override fixed field",
			kind: KindCreateCluster,
			in: Inputs{BasePath: "$.C", Values: map[string]Value{
				"Instances.KeepJobFlowAliveWhenNoSteps": Literal(false),
			}},
			want: ErrFixedField,
		},
		{
			name: "override fixed context path",
			kind: KindUpdateClusterTags,
			in:   Inputs{Values: map[string]Value{"ExecutionInput": ContextPath("$$.Execution.Name")}},
			want: ErrFixedField,
		},
		{
			name: "unknown field",
			kind: KindTerminateCluster,
			in:   Inputs{Values: map[string]Value{"ClusterId": Literal("j"), "Force": Literal(true)}},
			want: ErrUnknownField,
		},
		{
			name: "object replaced by value",
			kind: KindCreateCluster,
			in:   Inputs{BasePath: "$.C", Values: map[string]Value{"Instances": JSONPath("$.I")}},
			want: ErrShape,
		},
		{
			name: "missing required",
			kind: KindTerminateCluster,
			in:   Inputs{},
			want: ErrMissingField,
		},
		{
			name: "context base path",
			kind: KindCreateCluster,
			in:   Inputs{BasePath: "$$.Execution.Input"},
			want: ErrInvalidPath,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(tt.kind, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAssemble_OptionalFieldsOmitted(t *testing.T) {
	tree, err := Assemble(KindStartExecution, Inputs{Values: map[string]Value{"StateMachineArn": Literal("arn")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tree.Get("Name"); ok {
		t.Error("Name should be absent when not supplied")
	}
	if v, _ := tree.Get("Input"); v != ExecutionInput {
		t.Errorf("Input = %v, want %s", v, ExecutionInput)
	}
}

func TestAssemble_FixedFieldsAlwaysPresent(t *testing.T) {
	inputs := map[TaskKind]Inputs{
		KindCreateCluster:          {BasePath: "$.Cluster"},
		KindOverrideClusterConfigs: {},
		KindFailIfClusterRunning:   {Values: map[string]Value{"DefaultFailIfClusterRunning": Literal(false)}},
		KindUpdateClusterTags:      {},
		KindCheckClusterStatus:     {},
		KindRunJobFlow: {Values: map[string]Value{
			"FunctionName":              Literal("fn"),
			"Payload.CheckStatusLambda": Literal("arn"),
			"Payload.RuleName":          Literal("rule"),
			"Payload.FireAndForget":     Literal(true),
		}},
	}
	for kind, in := range inputs {
		t.Run(string(kind), func(t *testing.T) {
			tmpl, err := TemplateFor(kind)
			if err != nil {
				t.Fatal(err)
			}
			fixed := tmpl.FixedFields()
			if len(fixed) == 0 {
				t.Fatal("expected fixed fields")
			}
			tree, err := Assemble(kind, in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for name, want := range fixed {
				got := lookup(tree, name)
				if got == nil {
					t.Errorf("%s missing", name)
					continue
				}
				if IsPath(want) && got != want {
					t.Errorf("%s = %v, want %v", name, got, want)
				}
			}
		})
	}
}

func TestKinds(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 10 {
		t.Fatalf("len(Kinds()) = %d, want 10", len(kinds))
	}
	for i := 1; i < len(kinds); i++ {
		if kinds[i-1] >= kinds[i] {
			t.Errorf("kinds not sorted: %v", kinds)
		}
	}
}
