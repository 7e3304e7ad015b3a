package rollback

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/emrlaunch/emrlaunch/internal/aws"
	"github.com/emrlaunch/emrlaunch/internal/state"
)

func publishedState(t *testing.T) *state.State {
	t.Helper()
	st := state.New()
	for _, name := range []string{"launch", "nightly", "draft"} {
		st.Generated(name, state.Machine{DefinitionHash: name})
	}
	for _, name := range []string{"launch", "nightly"} {
		if err := st.Published(name, "s3://defs/emrlaunch/"+name+"/definition.asl.json", ""); err != nil {
			t.Fatal(err)
		}
	}
	return st
}

func TestFullRollback(t *testing.T) {
	client := aws.NewMockClient()
	st := publishedState(t)

	result, err := New(client, st).Execute(context.Background(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK() {
		t.Errorf("expected no errors, got %v", result.Errors)
	}
	if !reflect.DeepEqual(result.Withdrawn, []string{"launch", "nightly"}) {
		t.Errorf("Withdrawn = %v", result.Withdrawn)
	}
	want := []string{"defs/emrlaunch/launch/", "defs/emrlaunch/nightly/"}
	if !reflect.DeepEqual(client.DeletedPrefixes, want) {
		t.Errorf("DeletedPrefixes = %v, want %v", client.DeletedPrefixes, want)
	}
	for _, name := range []string{"launch", "nightly"} {
		if m := st.Machines[name]; m.Status != state.StatusGenerated || m.DefinitionS3URI != "" {
			t.Errorf("%s = %+v, want unpublished", name, m)
		}
	}
}

func TestRollback_SpecificNamesAndForget(t *testing.T) {
	client := aws.NewMockClient()
	st := publishedState(t)

	result, err := New(client, st).Execute(context.Background(), Options{Names: []string{"nightly", "draft"}, Forget: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result.Withdrawn, []string{"nightly"}) {
		t.Errorf("Withdrawn = %v", result.Withdrawn)
	}
	if !reflect.DeepEqual(result.Forgotten, []string{"nightly", "draft"}) {
		t.Errorf("Forgotten = %v", result.Forgotten)
	}
	if !reflect.DeepEqual(st.Names(), []string{"launch"}) {
		t.Errorf("remaining machines = %v", st.Names())
	}
}

func TestRollback_DeleteErrorKeepsPublication(t *testing.T) {
	client := aws.NewMockClient()
	client.DeleteErr = errors.New("access denied")
	st := publishedState(t)

	result, err := New(client, st).Execute(context.Background(), Options{Names: []string{"launch"}, Forget: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK() || !strings.Contains(result.Errors[0], "access denied") {
		t.Errorf("Errors = %v", result.Errors)
	}
	if st.Machines["launch"] == nil || st.Machines["launch"].Status != state.StatusPublished {
		t.Error("machine should stay published and recorded")
	}
}

func TestRollback_UnknownMachine(t *testing.T) {
	result, err := New(aws.NewMockClient(), state.New()).Execute(context.Background(), Options{Names: []string{"ghost"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Errorf("Errors = %v, want one", result.Errors)
	}
}

func TestParseS3Path(t *testing.T) {
	tests := []struct {
		in, bucket, prefix string
	}{
		{"s3://defs/emrlaunch/launch/definition.asl.json", "defs", "emrlaunch/launch/"},
		{"s3://defs/launch/definition.asl.json", "defs", "launch/"},
		{"s3://defs/definition.asl.json", "defs", ""},
		{"https://example.com/x", "", ""},
	}
	for _, tt := range tests {
		bucket, prefix := parseS3Path(tt.in)
		if bucket != tt.bucket || prefix != tt.prefix {
			t.Errorf("parseS3Path(%q) = %q, %q; want %q, %q", tt.in, bucket, prefix, tt.bucket, tt.prefix)
		}
	}
}
