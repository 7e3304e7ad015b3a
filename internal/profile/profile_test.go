package profile

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/emrlaunch/emrlaunch/internal/sfn"
	"github.com/emrlaunch/emrlaunch/internal/store"
)

func TestRoleARN(t *testing.T) {
	env := sfn.Env{Partition: "aws-us-gov", Account: "123456789012"}
	tests := []struct {
		role string
		env  sfn.Env
		want string
	}{
		{"EMR_DefaultRole", env, "arn:aws-us-gov:iam::123456789012:role/EMR_DefaultRole"},
		{"arn:aws:iam::999999999999:role/Custom", env, "arn:aws:iam::999999999999:role/Custom"},
		{"EMR_DefaultRole", sfn.Env{}, "arn:${AWS::Partition}:iam::${AWS::AccountId}:role/EMR_DefaultRole"},
	}
	for _, tt := range tests {
		if got := RoleARN(tt.env, tt.role); got != tt.want {
			t.Errorf("RoleARN(%q) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestResolverRoundTrip(t *testing.T) {
	backends := map[string]store.Store{
		"memory": store.NewMemoryStore(),
		"file":   store.NewFileStore(t.TempDir()),
	}
	for name, s := range backends {
		t.Run(name, func(t *testing.T) {
			resolveAndCheck(t, NewResolver(s))
		})
	}
}

func resolveAndCheck(t *testing.T, r *Resolver) {
	t.Helper()
	ctx := context.Background()
	p := Profile{
		Namespace:       "analytics",
		Name:            "default",
		ServiceRole:     "EMR_DefaultRole",
		InstanceRole:    "EMR_EC2_DefaultRole",
		AutoScalingRole: "EMR_AutoScaling_DefaultRole",
	}
	if err := r.Save(ctx, p); err != nil {
		t.Fatalf("saving: %v", err)
	}
	got, err := r.Resolve(ctx, "analytics", "default")
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if got != p {
		t.Errorf("Resolve = %+v, want %+v", got, p)
	}

	env := sfn.Env{Partition: "aws", Account: "123456789012"}
	want := []string{
		"arn:aws:iam::123456789012:role/EMR_DefaultRole",
		"arn:aws:iam::123456789012:role/EMR_EC2_DefaultRole",
		"arn:aws:iam::123456789012:role/EMR_AutoScaling_DefaultRole",
	}
	if roles := got.PassRoles(env); !reflect.DeepEqual(roles, want) {
		t.Errorf("PassRoles = %v, want %v", roles, want)
	}
}

func TestResolveMissing(t *testing.T) {
	_, err := NewResolver(store.NewMemoryStore()).Resolve(context.Background(), "ns", "none")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFromDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     store.Document
		wantErr bool
	}{
		{"flat", store.Document{"ServiceRole": "s", "InstanceRole": "i", "AutoScalingRole": "a"}, false},
		{"nested", store.Document{"Roles": map[string]any{"ServiceRole": "s", "InstanceRole": "i"}}, false},
		{"nested yaml decoded", store.Document{"Roles": store.Document{"ServiceRole": "s", "InstanceRole": "i"}}, false},
		{"missing instance role", store.Document{"ServiceRole": "s"}, true},
		{"wrong type", store.Document{"ServiceRole": 1, "InstanceRole": "i"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDocument("ns", "p", tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
