// Package profile resolves EMR profiles: the roles a launched cluster runs as.
package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/emrlaunch/emrlaunch/internal/sfn"
	"github.com/emrlaunch/emrlaunch/internal/store"
)

// Profile names the IAM roles of a cluster. Values are role names or ARNs.
type Profile struct {
	Namespace       string
	Name            string
	ServiceRole     string
	InstanceRole    string
	AutoScalingRole string
}

// Roles returns the configured roles in a fixed order.
func (p Profile) Roles() []string {
	var out []string
	for _, r := range []string{p.ServiceRole, p.InstanceRole, p.AutoScalingRole} {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

// RoleARN expands a role name to an ARN in env. ARNs are returned unchanged.
func RoleARN(env sfn.Env, role string) string {
	if strings.HasPrefix(role, "arn:") {
		return role
	}
	env = env.WithDefaults()
	return fmt.Sprintf("arn:%s:iam::%s:role/%s", env.Partition, env.Account, role)
}

// PassRoles are the role ARNs the state machine must be allowed to pass to EMR.
func (p Profile) PassRoles(env sfn.Env) []string {
	roles := p.Roles()
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleARN(env, r))
	}
	return out
}

// Document is the stored form of the profile.
func (p Profile) Document() store.Document {
	roles := map[string]any{}
	for k, v := range map[string]string{
		"ServiceRole":     p.ServiceRole,
		"InstanceRole":    p.InstanceRole,
		"AutoScalingRole": p.AutoScalingRole,
	} {
		if v != "" {
			roles[k] = v
		}
	}
	return store.Document{"ProfileName": p.Name, "Namespace": p.Namespace, "Roles": roles}
}

// FromDocument reads a stored profile. The roles may sit under "Roles" or at
// the top level.
func FromDocument(namespace, name string, doc store.Document) (Profile, error) {
	roles, _ := store.Object(doc["Roles"])
	if roles == nil {
		roles = doc
	}
	str := func(k string) (string, error) {
		v, ok := roles[k]
		if !ok || v == nil {
			return "", nil
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("profile %s/%s: %s is not a string", namespace, name, k)
		}
		return s, nil
	}

	p := Profile{Namespace: namespace, Name: name}
	var err error
	if p.ServiceRole, err = str("ServiceRole"); err != nil {
		return Profile{}, err
	}
	if p.InstanceRole, err = str("InstanceRole"); err != nil {
		return Profile{}, err
	}
	if p.AutoScalingRole, err = str("AutoScalingRole"); err != nil {
		return Profile{}, err
	}
	if p.ServiceRole == "" || p.InstanceRole == "" {
		return Profile{}, fmt.Errorf("profile %s/%s: service and instance roles are required", namespace, name)
	}
	return p, nil
}

// Resolver loads profiles from a store.
type Resolver struct {
	store store.Store
}

func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s}
}

func (r *Resolver) Resolve(ctx context.Context, namespace, name string) (Profile, error) {
	doc, err := r.store.Get(ctx, store.Key{Kind: store.KindProfile, Namespace: namespace, Name: name})
	if err != nil {
		return Profile{}, fmt.Errorf("loading profile: %w", err)
	}
	return FromDocument(namespace, name, doc)
}

func (r *Resolver) Save(ctx context.Context, p Profile) error {
	key := store.Key{Kind: store.KindProfile, Namespace: p.Namespace, Name: p.Name}
	if err := r.store.Put(ctx, key, p.Document()); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}
