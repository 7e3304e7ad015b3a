//go:build integration

package integration

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/emrlaunch/emrlaunch/internal/profile"
	"github.com/emrlaunch/emrlaunch/internal/store"
)

func roundTrip(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	key := store.Key{Kind: store.KindClusterConfiguration, Namespace: "integration", Name: "spark"}
	if _, err := s.Get(ctx, key); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get before Put: err = %v, want ErrNotFound", err)
	}

	doc := store.Document{"Cluster": map[string]any{
		"Name":         "spark",
		"ReleaseLabel": "emr-7.1.0",
		"Instances":    map[string]any{"Ec2SubnetId": "subnet-0abc"},
	}}
	if err := s.Put(ctx, key, doc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Errorf("Get = %v, want %v", got, doc)
	}

	doc["Cluster"].(map[string]any)["ReleaseLabel"] = "emr-7.2.0"
	if err := s.Put(ctx, key, doc); err != nil {
		t.Fatalf("Put (update): %v", err)
	}
	got, err = s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if label := got["Cluster"].(map[string]any)["ReleaseLabel"]; label != "emr-7.2.0" {
		t.Errorf("ReleaseLabel = %v, want emr-7.2.0", label)
	}

	resolver := profile.NewResolver(s)
	p := profile.Profile{Namespace: "integration", Name: "default", ServiceRole: "EMR_DefaultRole", InstanceRole: "EMR_EC2_DefaultRole"}
	if err := resolver.Save(ctx, p); err != nil {
		t.Fatalf("saving profile: %v", err)
	}
	resolved, err := resolver.Resolve(ctx, "integration", "default")
	if err != nil {
		t.Fatalf("resolving profile: %v", err)
	}
	if resolved != p {
		t.Errorf("Resolve = %+v, want %+v", resolved, p)
	}

	names, err := s.List(ctx, store.KindClusterConfiguration, "integration")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"spark"}) {
		t.Errorf("List = %v, want [spark]", names)
	}
}

func TestPostgresStore(t *testing.T) {
	skipIfNoPostgres(t)
	ctx := context.Background()

	s, err := store.NewPostgresStore(ctx, pgConnString(t), uniqueName("emr_launch_test"))
	if err != nil {
		t.Fatalf("connecting to PostgreSQL: %v", err)
	}
	defer s.Close(ctx)

	roundTrip(t, s)
}

func TestMongoStore(t *testing.T) {
	skipIfNoMongo(t)
	ctx := context.Background()

	s, err := store.NewMongoStore(ctx, mongoURI(t), uniqueName("emrlaunch_test"))
	if err != nil {
		t.Fatalf("connecting to MongoDB: %v", err)
	}
	defer s.Close(ctx)

	roundTrip(t, s)
}

func TestFileStore(t *testing.T) {
	roundTrip(t, store.NewFileStore(t.TempDir()))
}
