package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/emrlaunch/emrlaunch/internal/sfn"
)

var ErrInvalidDocument = errors.New("invalid document")

// ClusterKey is the field of a cluster configuration holding the create
// cluster settings; it ends up at $.ClusterConfiguration.Cluster.
const ClusterKey = "Cluster"

// ValidateClusterConfiguration checks that a stored configuration only uses
// fields the create-cluster task projects, and names the fields whose stored
// value is ignored in favor of a fixed one.
func ValidateClusterConfiguration(doc Document) (ignored []string, err error) {
	cluster, ok := Object(doc[ClusterKey])
	if !ok {
		return nil, fmt.Errorf("%w: missing %s object", ErrInvalidDocument, ClusterKey)
	}

	tmpl, err := sfn.TemplateFor(sfn.KindCreateCluster)
	if err != nil {
		return nil, err
	}
	known := map[string]bool{}
	for _, n := range tmpl.FieldNames() {
		known[n] = true
	}
	fixed := tmpl.FixedFields()

	var unknown []string
	check := func(name string) {
		switch {
		case !known[name]:
			unknown = append(unknown, name)
		case fixed[name] != nil:
			ignored = append(ignored, name)
		}
	}
	for k, v := range cluster {
		if k != "Instances" {
			check(k)
			continue
		}
		instances, ok := Object(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s.Instances is not an object", ErrInvalidDocument, ClusterKey)
		}
		for ik := range instances {
			check("Instances." + ik)
		}
	}
	sort.Strings(unknown)
	sort.Strings(ignored)

	var missing []string
	for _, req := range []string{"Name", "Instances"} {
		if _, ok := cluster[req]; !ok {
			missing = append(missing, req)
		}
	}
	switch {
	case len(missing) > 0:
		return ignored, fmt.Errorf("%w: missing %s", ErrInvalidDocument, strings.Join(missing, ", "))
	case len(unknown) > 0:
		return ignored, fmt.Errorf("%w: unknown fields %s", ErrInvalidDocument, strings.Join(unknown, ", "))
	}
	return ignored, nil
}
