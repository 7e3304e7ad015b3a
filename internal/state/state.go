package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emrlaunch/emrlaunch/internal/config"
)

const DefaultPath = "~/.emrlaunch/state.yaml"

// Status of a generated state machine.
type Status string

const (
	StatusGenerated Status = "generated"
	StatusVerified  Status = "verified"
	StatusPublished Status = "published"
)

// State records what has been generated and published, keyed by state
// machine name.
type State struct {
	LastUpdated time.Time           `yaml:"last_updated"`
	Machines    map[string]*Machine `yaml:"machines,omitempty"`
}

// Machine tracks the artifacts of one state machine.
type Machine struct {
	Status         Status    `yaml:"status"`
	PipelinePath   string    `yaml:"pipeline_path,omitempty"`
	DefinitionPath string    `yaml:"definition_path"`
	PolicyPath     string    `yaml:"policy_path,omitempty"`
	DefinitionHash string    `yaml:"definition_hash,omitempty"`
	GeneratedAt    time.Time `yaml:"generated_at"`

	PreflightPrincipal string    `yaml:"preflight_principal,omitempty"`
	VerifiedAt         time.Time `yaml:"verified_at,omitempty"`

	DefinitionS3URI string    `yaml:"definition_s3_uri,omitempty"`
	PolicyS3URI     string    `yaml:"policy_s3_uri,omitempty"`
	PublishedAt     time.Time `yaml:"published_at,omitempty"`
}

// Load reads the state from disk. A missing file yields a fresh state.
func Load(path string) (*State, error) {
	if path == "" {
		path = config.ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	s := &State{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	if s.Machines == nil {
		s.Machines = make(map[string]*Machine)
	}
	return s, nil
}

// Save writes the state to disk.
func (s *State) Save(path string) error {
	if path == "" {
		path = config.ExpandHome(DefaultPath)
	}

	s.LastUpdated = time.Now()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func New() *State {
	return &State{LastUpdated: time.Now(), Machines: make(map[string]*Machine)}
}

// Generated records a fresh generation of name, resetting earlier
// verification and publication when the definition changed.
func (s *State) Generated(name string, m Machine) {
	prev := s.Machines[name]
	m.Status = StatusGenerated
	if m.GeneratedAt.IsZero() {
		m.GeneratedAt = time.Now()
	}
	if prev != nil && prev.DefinitionHash == m.DefinitionHash && m.DefinitionHash != "" {
		m.Status = prev.Status
		m.PreflightPrincipal, m.VerifiedAt = prev.PreflightPrincipal, prev.VerifiedAt
		m.DefinitionS3URI, m.PolicyS3URI, m.PublishedAt = prev.DefinitionS3URI, prev.PolicyS3URI, prev.PublishedAt
	}
	s.Machines[name] = &m
}

// Verified marks name as having passed preflight for principal.
func (s *State) Verified(name, principal string) error {
	m, ok := s.Machines[name]
	if !ok {
		return fmt.Errorf("state machine %q has not been generated", name)
	}
	m.PreflightPrincipal = principal
	m.VerifiedAt = time.Now()
	if m.Status == StatusGenerated {
		m.Status = StatusVerified
	}
	return nil
}

// Published records where name's documents were uploaded.
func (s *State) Published(name, definitionURI, policyURI string) error {
	m, ok := s.Machines[name]
	if !ok {
		return fmt.Errorf("state machine %q has not been generated", name)
	}
	m.DefinitionS3URI = definitionURI
	m.PolicyS3URI = policyURI
	m.PublishedAt = time.Now()
	m.Status = StatusPublished
	return nil
}

// Unpublished clears the publication of name, returning it to its
// pre-publication status.
func (s *State) Unpublished(name string) error {
	m, ok := s.Machines[name]
	if !ok {
		return fmt.Errorf("state machine %q has not been generated", name)
	}
	m.DefinitionS3URI, m.PolicyS3URI, m.PublishedAt = "", "", time.Time{}
	m.Status = StatusGenerated
	if !m.VerifiedAt.IsZero() {
		m.Status = StatusVerified
	}
	return nil
}

// Forget drops name from the state.
func (s *State) Forget(name string) {
	delete(s.Machines, name)
}

// Names returns the recorded state machine names, sorted.
func (s *State) Names() []string {
	names := make([]string, 0, len(s.Machines))
	for n := range s.Machines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
