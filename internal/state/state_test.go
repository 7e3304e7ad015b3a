package state

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "state.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Machines) != 0 {
		t.Errorf("expected empty state, got %d machines", len(s.Machines))
	}
}

func TestLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	s := New()
	s.Generated("launch", Machine{DefinitionPath: "out/launch.asl.json", DefinitionHash: "abc"})
	if err := s.Verified("launch", "arn:aws:iam::1:role/r"); err != nil {
		t.Fatalf("verifying: %v", err)
	}
	if err := s.Published("launch", "s3://b/launch/definition.asl.json", ""); err != nil {
		t.Fatalf("publishing: %v", err)
	}
	if err := s.Save(path); err != nil {
		t.Fatalf("saving: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	m := loaded.Machines["launch"]
	if m == nil || m.Status != StatusPublished {
		t.Fatalf("machine = %+v, want published", m)
	}
	if m.DefinitionS3URI != "s3://b/launch/definition.asl.json" {
		t.Errorf("DefinitionS3URI = %q", m.DefinitionS3URI)
	}
}

func TestGeneratedResetsOnChange(t *testing.T) {
	s := New()
	s.Generated("launch", Machine{DefinitionHash: "abc"})
	_ = s.Published("launch", "s3://b/x", "")

	s.Generated("launch", Machine{DefinitionHash: "abc"})
	if got := s.Machines["launch"].Status; got != StatusPublished {
		t.Errorf("unchanged definition: Status = %q, want %q", got, StatusPublished)
	}

	s.Generated("launch", Machine{DefinitionHash: "def"})
	m := s.Machines["launch"]
	if m.Status != StatusGenerated || m.DefinitionS3URI != "" {
		t.Errorf("changed definition: got %+v, want fresh generated record", m)
	}
}

func TestUnknownMachine(t *testing.T) {
	s := New()
	if err := s.Verified("missing", "p"); err == nil {
		t.Error("expected error verifying an unknown machine")
	}
	if err := s.Published("missing", "u", ""); err == nil {
		t.Error("expected error publishing an unknown machine")
	}
}

func TestNames(t *testing.T) {
	s := New()
	s.Generated("b", Machine{})
	s.Generated("a", Machine{})
	if got := s.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Names = %v", got)
	}
}

func TestUnpublished(t *testing.T) {
	s := New()
	s.Generated("launch", Machine{DefinitionHash: "abc"})
	if err := s.Published("launch", "s3://b/launch/definition.asl.json", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Unpublished("launch"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := s.Machines["launch"]
	if m.Status != StatusGenerated || m.DefinitionS3URI != "" || !m.PublishedAt.IsZero() {
		t.Errorf("machine = %+v, want generated and unpublished", m)
	}

	if err := s.Verified("launch", "arn:aws:iam::1:role/r"); err != nil {
		t.Fatal(err)
	}
	if err := s.Published("launch", "s3://b/launch/definition.asl.json", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Unpublished("launch"); err != nil {
		t.Fatal(err)
	}
	if m.Status != StatusVerified {
		t.Errorf("Status = %s, want verified", m.Status)
	}

	s.Forget("launch")
	if _, ok := s.Machines["launch"]; ok {
		t.Error("machine should be forgotten")
	}
	if err := s.Unpublished("launch"); err == nil {
		t.Error("expected error for unknown machine")
	}
}
