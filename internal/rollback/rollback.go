// Package rollback withdraws published state machine definitions.
package rollback

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/emrlaunch/emrlaunch/internal/aws"
	"github.com/emrlaunch/emrlaunch/internal/state"
)

// Rollback orchestrates the withdrawal of published definitions.
type Rollback struct {
	awsClient aws.Client
	state     *state.State
}

// Options controls what gets rolled back.
type Options struct {
	Names  []string // empty = every published machine
	Forget bool     // also drop the machines from the state
}

// Result holds the outcome of a rollback.
type Result struct {
	Withdrawn []string `yaml:"withdrawn,omitempty"`
	Forgotten []string `yaml:"forgotten,omitempty"`
	Errors    []string `yaml:"errors,omitempty"`
}

// OK reports whether every step succeeded.
func (r *Result) OK() bool { return len(r.Errors) == 0 }

// New creates a new Rollback orchestrator.
func New(client aws.Client, st *state.State) *Rollback {
	return &Rollback{awsClient: client, state: st}
}

// Execute performs the rollback. Each machine is handled even if a prior one
// fails; a machine whose objects could not be removed stays published.
func (r *Rollback) Execute(ctx context.Context, opts Options) (*Result, error) {
	names := opts.Names
	if len(names) == 0 {
		names = r.publishedNames()
	}
	result := &Result{}

	for _, name := range names {
		m, ok := r.state.Machines[name]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: not generated", name))
			continue
		}

		if m.DefinitionS3URI != "" {
			bucket, prefix := parseS3Path(m.DefinitionS3URI)
			if bucket == "" || prefix == "" {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: unexpected location %s", name, m.DefinitionS3URI))
				continue
			}
			if err := r.awsClient.DeleteS3Prefix(ctx, bucket, prefix); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: removing S3 objects: %v", name, err))
				continue
			}
			if err := r.state.Unpublished(name); err != nil {
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.Withdrawn = append(result.Withdrawn, name)
		}

		if opts.Forget {
			r.state.Forget(name)
			result.Forgotten = append(result.Forgotten, name)
		}
	}
	return result, nil
}

func (r *Rollback) publishedNames() []string {
	var names []string
	for _, n := range r.state.Names() {
		if r.state.Machines[n].DefinitionS3URI != "" {
			names = append(names, n)
		}
	}
	return names
}

// parseS3Path splits the URI of a published definition into its bucket and
// the prefix holding the machine's objects.
func parseS3Path(s3Path string) (string, string) {
	rest, ok := strings.CutPrefix(s3Path, "s3://")
	if !ok {
		return "", ""
	}
	bucket, key, _ := strings.Cut(rest, "/")
	dir := path.Dir(key)
	if dir == "." || dir == "/" {
		return bucket, ""
	}
	return bucket, dir + "/"
}
