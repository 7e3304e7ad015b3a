package sfn

import (
	"errors"
	"fmt"
	"sort"
)

// TaskKind identifies a parameter template.
type TaskKind string

const (
	KindStartExecution           TaskKind = "start-execution"
	KindCreateCluster            TaskKind = "create-cluster"
	KindAddStep                  TaskKind = "add-step"
	KindTerminateCluster         TaskKind = "terminate-cluster"
	KindLoadClusterConfiguration TaskKind = "load-cluster-configuration"
	KindOverrideClusterConfigs   TaskKind = "override-cluster-configs"
	KindFailIfClusterRunning     TaskKind = "fail-if-cluster-running"
	KindUpdateClusterTags        TaskKind = "update-cluster-tags"
	KindRunJobFlow               TaskKind = "run-job-flow"
	KindCheckClusterStatus       TaskKind = "check-cluster-status"
)

var ErrUnknownTaskKind = errors.New("unknown task kind")

// FieldRule describes how one parameter field is resolved.
type FieldRule struct {
	Name string

	// Fixed is emitted unconditionally and may not be overridden.
	Fixed Value

	// Fields makes this a nested object resolved with the same rules; the
	// base path is extended by Name.
	Fields []FieldRule

	// Literal and Path state which kinds of explicit value are accepted.
	// Path also enables projection from the base path.
	Literal bool
	Path    bool

	Required bool

	// Default is used when no explicit value and no base path apply.
	Default Value
}

// Template is the ordered field set of a task kind.
type Template struct {
	Kind   TaskKind
	Fields []FieldRule
}

func pathField(name string) FieldRule {
	return FieldRule{Name: name, Path: true, Required: true}
}

func fixedField(name string, v Value) FieldRule {
	return FieldRule{Name: name, Fixed: v}
}

func literalField(name string, required bool) FieldRule {
	return FieldRule{Name: name, Literal: true, Required: required}
}

func valueField(name string, required bool) FieldRule {
	return FieldRule{Name: name, Literal: true, Path: true, Required: required}
}

func defaultField(name string, def Value, literalOK bool) FieldRule {
	return FieldRule{Name: name, Literal: literalOK, Path: true, Default: def}
}

func objectField(name string, fields ...FieldRule) FieldRule {
	return FieldRule{Name: name, Fields: fields, Required: true}
}

// KeepJobFlowAliveWhenNoSteps is forced on so steps can be added after the
// cluster starts; the configuration value is never projected.
const KeepJobFlowAliveWhenNoSteps = true

var clusterInstanceFields = []FieldRule{
	pathField("AdditionalMasterSecurityGroups"),
	pathField("AdditionalSlaveSecurityGroups"),
	pathField("Ec2KeyName"),
	pathField("Ec2SubnetId"),
	pathField("Ec2SubnetIds"),
	pathField("EmrManagedMasterSecurityGroup"),
	pathField("EmrManagedSlaveSecurityGroup"),
	pathField("HadoopVersion"),
	pathField("InstanceCount"),
	pathField("InstanceFleets"),
	pathField("InstanceGroups"),
	fixedField("KeepJobFlowAliveWhenNoSteps", Literal(KeepJobFlowAliveWhenNoSteps)),
	pathField("MasterInstanceType"),
	pathField("Placement"),
	pathField("ServiceAccessSecurityGroup"),
	pathField("SlaveInstanceType"),
	pathField("TerminationProtected"),
}

var clusterFields = []FieldRule{
	pathField("AdditionalInfo"),
	pathField("AmiVersion"),
	pathField("Applications"),
	pathField("AutoScalingRole"),
	pathField("BootstrapActions"),
	pathField("Configurations"),
	pathField("CustomAmiId"),
	pathField("EbsRootVolumeSize"),
	objectField("Instances", clusterInstanceFields...),
	pathField("JobFlowRole"),
	pathField("KerberosAttributes"),
	pathField("LogUri"),
	pathField("Name"),
	pathField("NewSupportedProducts"),
	pathField("ReleaseLabel"),
	pathField("RepoUpgradeOnBoot"),
	pathField("ScaleDownBehavior"),
	pathField("SecurityConfiguration"),
	pathField("ServiceRole"),
	pathField("StepConcurrencyLevel"),
	pathField("SupportedProducts"),
	pathField("Tags"),
	pathField("VisibleToAllUsers"),
}

// Default locations in the execution data used by the callable-backed tasks.
const (
	ClusterConfigurationPath JSONPath = "$.ClusterConfiguration"
	ClusterPath              JSONPath = "$.ClusterConfiguration.Cluster"
	LaunchClusterResultPath  JSONPath = "$.LaunchClusterResult"
	ClusterStatusPath        JSONPath = "$.ClusterStatus"
	LaunchedClusterIDPath    JSONPath = "$.LaunchClusterResult.ClusterId"
)

var templates = map[TaskKind]Template{
	KindStartExecution: {Kind: KindStartExecution, Fields: []FieldRule{
		literalField("StateMachineArn", true),
		defaultField("Input", ExecutionInput, true),
		literalField("Name", false),
	}},
	KindCreateCluster: {Kind: KindCreateCluster, Fields: clusterFields},
	KindAddStep: {Kind: KindAddStep, Fields: []FieldRule{
		valueField("ClusterId", true),
		literalField("Step", true),
	}},
	KindTerminateCluster: {Kind: KindTerminateCluster, Fields: []FieldRule{
		valueField("ClusterId", true),
	}},
	KindLoadClusterConfiguration: {Kind: KindLoadClusterConfiguration, Fields: []FieldRule{
		literalField("ClusterName", true),
		literalField("ClusterTags", true),
		literalField("ProfileNamespace", true),
		literalField("ProfileName", true),
		literalField("ConfigurationNamespace", true),
		literalField("ConfigurationName", true),
	}},
	KindOverrideClusterConfigs: {Kind: KindOverrideClusterConfigs, Fields: []FieldRule{
		fixedField("ExecutionInput", ExecutionInput),
		defaultField("ClusterConfiguration", ClusterPath, false),
		literalField("AllowedClusterConfigOverrides", false),
	}},
	KindFailIfClusterRunning: {Kind: KindFailIfClusterRunning, Fields: []FieldRule{
		fixedField("ExecutionInput", ExecutionInput),
		literalField("DefaultFailIfClusterRunning", true),
		defaultField("ClusterConfiguration", ClusterPath, false),
	}},
	KindUpdateClusterTags: {Kind: KindUpdateClusterTags, Fields: []FieldRule{
		fixedField("ExecutionInput", ExecutionInput),
		defaultField("ClusterConfiguration", ClusterPath, false),
	}},
	KindRunJobFlow: {Kind: KindRunJobFlow, Fields: []FieldRule{
		literalField("FunctionName", true),
		objectField("Payload",
			fixedField("ExecutionInput", ExecutionInput),
			defaultField("ClusterConfiguration", ClusterConfigurationPath, false),
			fixedField("TaskToken", TaskToken),
			literalField("CheckStatusLambda", true),
			literalField("RuleName", true),
			literalField("FireAndForget", true),
		),
	}},
	KindCheckClusterStatus: {Kind: KindCheckClusterStatus, Fields: []FieldRule{
		fixedField("ExecutionInput", ExecutionInput),
		defaultField("ClusterId", LaunchedClusterIDPath, true),
	}},
}

// TemplateFor returns the field template of kind.
func TemplateFor(kind TaskKind) (Template, error) {
	t, ok := templates[kind]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownTaskKind, kind)
	}
	return t, nil
}

// Kinds lists the known task kinds in sorted order.
func Kinds() []TaskKind {
	kinds := make([]TaskKind, 0, len(templates))
	for k := range templates {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// FixedFields returns the dotted names and values of the template's
// non-overridable fields.
func (t Template) FixedFields() map[string]Value {
	out := map[string]Value{}
	collectFixed(t.Fields, "", out)
	return out
}

func collectFixed(rules []FieldRule, prefix string, out map[string]Value) {
	for _, r := range rules {
		name := joinName(prefix, r.Name)
		switch {
		case r.Fixed != nil:
			out[name] = r.Fixed
		case len(r.Fields) > 0:
			collectFixed(r.Fields, name, out)
		}
	}
}

// FieldNames returns the dotted names of every leaf field in template order.
func (t Template) FieldNames() []string {
	var out []string
	collectNames(t.Fields, "", &out)
	return out
}

func collectNames(rules []FieldRule, prefix string, out *[]string) {
	for _, r := range rules {
		name := joinName(prefix, r.Name)
		if len(r.Fields) > 0 {
			collectNames(r.Fields, name, out)
			continue
		}
		*out = append(*out, name)
	}
}

func joinName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
