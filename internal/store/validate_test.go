package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestValidateClusterConfiguration(t *testing.T) {
	doc := Document{
		"Cluster": map[string]any{
			"Name":         "nightly",
			"ReleaseLabel": "emr-6.15.0",
			"Instances": map[string]any{
				"InstanceGroups":              []any{},
				"KeepJobFlowAliveWhenNoSteps": false,
			},
		},
	}
	ignored, err := ValidateClusterConfiguration(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"Instances.KeepJobFlowAliveWhenNoSteps"}; !reflect.DeepEqual(ignored, want) {
		t.Errorf("ignored = %v, want %v", ignored, want)
	}
}

func TestValidateClusterConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{"no cluster", Document{}, "missing Cluster"},
		{"missing name", Document{"Cluster": map[string]any{"Instances": map[string]any{}}}, "missing Name"},
		{"unknown field", Document{"Cluster": map[string]any{
			"Name": "c", "Instances": map[string]any{"Spot": true}, "Steps": []any{},
		}}, "unknown fields Instances.Spot, Steps"},
		{"instances not object", Document{"Cluster": map[string]any{"Name": "c", "Instances": "m5.xlarge"}}, "not an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateClusterConfiguration(tt.doc)
			if !errors.Is(err, ErrInvalidDocument) {
				t.Fatalf("err = %v, want ErrInvalidDocument", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

const clusterYAML = `Cluster:
  Name: nightly
  ReleaseLabel: emr-6.15.0
  Instances:
    InstanceGroups: []
    KeepJobFlowAliveWhenNoSteps: false
`

func TestValidateClusterConfiguration_Decoded(t *testing.T) {
	var direct Document
	if err := yaml.Unmarshal([]byte(clusterYAML), &direct); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	parsed, err := ParseDocument([]byte(clusterYAML))
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}

	ctx := context.Background()
	fs := NewFileStore(t.TempDir())
	key := Key{Kind: KindClusterConfiguration, Namespace: "analytics", Name: "nightly"}
	if err := fs.Put(ctx, key, parsed); err != nil {
		t.Fatalf("Put: %v", err)
	}
	stored, err := fs.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	want := []string{"Instances.KeepJobFlowAliveWhenNoSteps"}
	for name, doc := range map[string]Document{"yaml": direct, "parsed": parsed, "file store": stored} {
		ignored, err := ValidateClusterConfiguration(doc)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
			continue
		}
		if !reflect.DeepEqual(ignored, want) {
			t.Errorf("%s: ignored = %v, want %v", name, ignored, want)
		}
	}
}
