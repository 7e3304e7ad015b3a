package sfn

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/emr/types"
)

// Tasks in this file front a backing function. They read the whole current
// scope and merge their result into a fixed location instead of replacing it.

// AugmentOutputPath keeps the whole scope after a callable-backed task.
const AugmentOutputPath = "$"

func invokePolicy(fns ...Callable) PolicyStatement {
	arns := make([]string, 0, len(fns))
	for _, f := range fns {
		arns = append(arns, f.ARN())
	}
	return allow(arns, "lambda:InvokeFunction")
}

func callableTask(kind TaskKind, fn Callable, values map[string]Value, resultPath JSONPath) (Task, error) {
	if err := fn.require("function"); err != nil {
		return Task{}, fmt.Errorf("building %s task: %w", kind, err)
	}
	params, err := Assemble(kind, Inputs{Values: values})
	if err != nil {
		return Task{}, err
	}
	return NewTask(kind, fn, params, TaskPaths{
		OutputPath: AugmentOutputPath,
		ResultPath: string(resultPath),
	}, invokePolicy(fn))
}

// LoadClusterConfigurationInput names the profile and configuration to load.
type LoadClusterConfigurationInput struct {
	Function               Callable
	ClusterName            string
	ClusterTags            []types.Tag
	ProfileNamespace       string
	ProfileName            string
	ConfigurationNamespace string
	ConfigurationName      string
}

// LoadClusterConfiguration loads a stored configuration into
// $.ClusterConfiguration.
func LoadClusterConfiguration(_ Env, in LoadClusterConfigurationInput) (Task, error) {
	required := [][2]string{
		{"ClusterName", in.ClusterName},
		{"ProfileNamespace", in.ProfileNamespace},
		{"ProfileName", in.ProfileName},
		{"ConfigurationNamespace", in.ConfigurationNamespace},
		{"ConfigurationName", in.ConfigurationName},
	}
	values := map[string]Value{"ClusterTags": Literal(tagList(in.ClusterTags))}
	for _, r := range required {
		if r[1] == "" {
			return Task{}, fmt.Errorf("building %s task: %w: %s", KindLoadClusterConfiguration, ErrMissingField, r[0])
		}
		values[r[0]] = Literal(r[1])
	}
	return callableTask(KindLoadClusterConfiguration, in.Function, values, ClusterConfigurationPath)
}

type tag struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

func tagList(tags []types.Tag) []tag {
	out := make([]tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, tag{Key: aws.ToString(t.Key), Value: aws.ToString(t.Value)})
	}
	return out
}

// OverrideClusterConfigsInput configures execution-input overrides of the
// loaded cluster configuration.
type OverrideClusterConfigsInput struct {
	Function Callable

	// AllowedOverrides maps an execution input key to the configuration
	// field it may override. Nil leaves the decision to the function.
	AllowedOverrides map[string]string
}

// OverrideClusterConfigs applies execution-input overrides to
// $.ClusterConfiguration.Cluster.
func OverrideClusterConfigs(_ Env, in OverrideClusterConfigsInput) (Task, error) {
	values := map[string]Value{}
	if in.AllowedOverrides != nil {
		values["AllowedClusterConfigOverrides"] = Literal(in.AllowedOverrides)
	}
	return callableTask(KindOverrideClusterConfigs, in.Function, values, ClusterPath)
}

// FailIfClusterRunningInput configures the duplicate-cluster guard.
type FailIfClusterRunningInput struct {
	Function                    Callable
	DefaultFailIfClusterRunning bool
}

// FailIfClusterRunning fails the execution when a cluster with the configured
// name is already active.
func FailIfClusterRunning(_ Env, in FailIfClusterRunningInput) (Task, error) {
	return callableTask(KindFailIfClusterRunning, in.Function, map[string]Value{
		"DefaultFailIfClusterRunning": Literal(in.DefaultFailIfClusterRunning),
	}, ClusterPath)
}

// UpdateClusterTags merges execution-input tags into the cluster configuration.
func UpdateClusterTags(_ Env, fn Callable) (Task, error) {
	return callableTask(KindUpdateClusterTags, fn, nil, ClusterPath)
}

// CheckClusterStatusInput configures a one-off cluster status lookup.
type CheckClusterStatusInput struct {
	Function Callable

	// Cluster defaults to the id RunJobFlow leaves at
	// $.LaunchClusterResult.ClusterId.
	Cluster ClusterRef
}

// CheckClusterStatus records the cluster's current status at $.ClusterStatus.
func CheckClusterStatus(_ Env, in CheckClusterStatusInput) (Task, error) {
	values := map[string]Value{}
	if in.Cluster != (ClusterRef{}) {
		v, err := in.Cluster.value(KindCheckClusterStatus)
		if err != nil {
			return Task{}, err
		}
		values["ClusterId"] = v
	}
	return callableTask(KindCheckClusterStatus, in.Function, values, ClusterStatusPath)
}

// RunJobFlowInput configures a monitored cluster launch.
type RunJobFlowInput struct {
	Function Callable

	// CheckStatus is invoked by the monitoring rule until the cluster is
	// ready; it then reports back with the task token.
	CheckStatus Callable
	RuleName    string

	// FireAndForget reports success as soon as the launch is accepted.
	FireAndForget bool

	// ResultPath defaults to $.LaunchClusterResult. A task without a
	// ResultPath would replace the whole execution data with the launch
	// result; callers that read the cluster id from the top level must read
	// it from $.LaunchClusterResult.ClusterId instead. "$" is rejected.
	ResultPath JSONPath
}

// RunJobFlow launches the cluster through a function and waits for the
// status checker to return the task token.
func RunJobFlow(env Env, in RunJobFlowInput) (Task, error) {
	if err := in.Function.require("function"); err != nil {
		return Task{}, fmt.Errorf("building %s task: %w", KindRunJobFlow, err)
	}
	if err := in.CheckStatus.require("check status function"); err != nil {
		return Task{}, fmt.Errorf("building %s task: %w", KindRunJobFlow, err)
	}
	if in.RuleName == "" {
		return Task{}, fmt.Errorf("building %s task: %w: RuleName", KindRunJobFlow, ErrMissingField)
	}
	resultPath := in.ResultPath
	if resultPath == "" {
		resultPath = LaunchClusterResultPath
	}
	if resultPath == "$" {
		return Task{}, fmt.Errorf("building %s task: %w: result would replace the execution data", KindRunJobFlow, ErrShape)
	}

	params, err := Assemble(KindRunJobFlow, Inputs{Values: map[string]Value{
		"FunctionName":              Literal(in.Function.Name()),
		"Payload.CheckStatusLambda": Literal(in.CheckStatus.ARN()),
		"Payload.RuleName":          Literal(in.RuleName),
		"Payload.FireAndForget":     Literal(in.FireAndForget),
	}})
	if err != nil {
		return Task{}, err
	}
	resource, err := integration(env, ServiceLambda, ActionInvoke, WaitForTaskToken)
	if err != nil {
		return Task{}, err
	}
	return NewTask(KindRunJobFlow, resource, params, TaskPaths{ResultPath: string(resultPath)},
		invokePolicy(in.Function, in.CheckStatus))
}
