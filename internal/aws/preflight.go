package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/emrlaunch/emrlaunch/internal/sfn"
)

// PreflightResult holds the outcome of simulating a generated policy.
type PreflightResult struct {
	Principal string     `yaml:"principal"`
	Checked   int        `yaml:"checked"`
	Denied    []Decision `yaml:"denied,omitempty"`
	Errors    []string   `yaml:"errors,omitempty"`
}

// OK reports whether every action was allowed.
func (r *PreflightResult) OK() bool {
	return len(r.Denied) == 0 && len(r.Errors) == 0
}

// ResolvePlaceholders substitutes env's concrete values for deploy-time
// placeholders in an ARN. Placeholders env leaves empty become wildcards.
func ResolvePlaceholders(arn string, env sfn.Env) string {
	value := func(v string) string {
		if v == "" || strings.HasPrefix(v, "${") {
			return "*"
		}
		return v
	}
	return strings.NewReplacer(
		sfn.PartitionPlaceholder, value(env.Partition),
		sfn.RegionPlaceholder, value(env.Region),
		sfn.AccountPlaceholder, value(env.Account),
	).Replace(arn)
}

// RunPreflight simulates every action of doc for principalARN. An empty
// principal means the caller; env supplies values for ARN placeholders.
func RunPreflight(ctx context.Context, client Client, principalARN string, env sfn.Env, doc sfn.PolicyDocument) (*PreflightResult, error) {
	if principalARN == "" {
		id, err := client.VerifyCredentials(ctx)
		if err != nil {
			return nil, fmt.Errorf("verifying credentials: %w", err)
		}
		principalARN = id.ARN
	}
	result := &PreflightResult{Principal: PrincipalARN(principalARN)}

	var checks []ActionCheck
	for _, pair := range doc.Actions() {
		checks = append(checks, ActionCheck{Action: pair[0], Resource: ResolvePlaceholders(pair[1], env)})
	}
	if len(checks) == 0 {
		result.Errors = append(result.Errors, "policy document has no allowed actions")
		return result, nil
	}

	decisions, err := client.SimulateActions(ctx, result.Principal, checks)
	if err != nil {
		return nil, fmt.Errorf("simulating policy: %w", err)
	}
	result.Checked = len(decisions)
	for _, d := range decisions {
		if !d.Allowed {
			result.Denied = append(result.Denied, d)
		}
	}
	return result, nil
}
