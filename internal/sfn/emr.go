package sfn

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/emr/types"
)

// Managed EventBridge rules used by the engine for .sync integrations.
const (
	ruleRunJobFlow       = "StepFunctionsGetEventForEMRRunJobFlowRule"
	ruleAddJobFlowSteps  = "StepFunctionsGetEventForEMRAddJobFlowStepsRule"
	ruleTerminateJobFlow = "StepFunctionsGetEventForEMRTerminateJobFlowsRule"
	ruleStartExecution   = "StepFunctionsGetEventsForStepFunctionsExecutionRule"
)

// StartExecutionInput configures a nested state machine execution.
type StartExecutionInput struct {
	StateMachineARN string

	// Input is passed verbatim. When nil, the current execution's original
	// input is propagated.
	Input any
	Name  string
}

// StartExecution starts another state machine and waits for it to finish.
func StartExecution(env Env, in StartExecutionInput) (Task, error) {
	if in.StateMachineARN == "" {
		return Task{}, fmt.Errorf("building %s task: %w: StateMachineArn", KindStartExecution, ErrMissingField)
	}
	values := map[string]Value{"StateMachineArn": Literal(in.StateMachineARN)}
	if in.Input != nil {
		values["Input"] = Literal(in.Input)
	}
	if in.Name != "" {
		values["Name"] = Literal(in.Name)
	}
	params, err := Assemble(KindStartExecution, Inputs{Values: values})
	if err != nil {
		return Task{}, err
	}
	resource, err := integration(env, ServiceStates, ActionStartExecution, Sync)
	if err != nil {
		return Task{}, err
	}
	return NewTask(KindStartExecution, resource, params, TaskPaths{},
		allow([]string{in.StateMachineARN}, "states:StartExecution"),
		allow([]string{executionsOf(in.StateMachineARN)}, "states:DescribeExecution", "states:StopExecution"),
		syncRulePolicy(env, ruleStartExecution),
	)
}

func executionsOf(stateMachineARN string) string {
	if strings.Contains(stateMachineARN, ":stateMachine:") {
		return strings.Replace(stateMachineARN, ":stateMachine:", ":execution:", 1) + ":*"
	}
	return "*"
}

// CreateClusterInput configures a cluster launch projected from a previously
// computed configuration object.
type CreateClusterInput struct {
	// ConfigurationPath is where the cluster configuration lives in the
	// execution data, e.g. "$.ClusterConfiguration.Cluster".
	ConfigurationPath JSONPath

	// PassRoles are role ARNs the engine must be allowed to pass to EMR.
	PassRoles []string
}

// CreateCluster launches a cluster and waits until it is running.
func CreateCluster(env Env, in CreateClusterInput) (Task, error) {
	if in.ConfigurationPath == "" {
		return Task{}, fmt.Errorf("building %s task: %w: configuration path", KindCreateCluster, ErrMissingField)
	}
	params, err := Assemble(KindCreateCluster, Inputs{BasePath: in.ConfigurationPath})
	if err != nil {
		return Task{}, err
	}
	resource, err := integration(env, ServiceEMR, ActionCreateCluster, Sync)
	if err != nil {
		return Task{}, err
	}
	policy := []PolicyStatement{
		allow([]string{"*"}, "elasticmapreduce:RunJobFlow", "elasticmapreduce:DescribeCluster", "elasticmapreduce:TerminateJobFlows"),
		syncRulePolicy(env, ruleRunJobFlow),
	}
	if len(in.PassRoles) > 0 {
		policy = append(policy, allow(append([]string(nil), in.PassRoles...), "iam:PassRole"))
	}
	return NewTask(KindCreateCluster, resource, params, TaskPaths{}, policy...)
}

// CreateClusterFromConfiguration launches the cluster described at
// $.ClusterConfiguration.Cluster, where LoadClusterConfiguration and the
// override tasks leave it.
func CreateClusterFromConfiguration(env Env, passRoles []string) (Task, error) {
	return CreateCluster(env, CreateClusterInput{ConfigurationPath: ClusterPath, PassRoles: passRoles})
}

// ClusterRef identifies the cluster a task acts on: a literal id or a path to
// one in the execution data. Exactly one must be set.
type ClusterRef struct {
	ID   string
	Path JSONPath
}

func (r ClusterRef) value(kind TaskKind) (Value, error) {
	switch {
	case r.ID != "" && r.Path != "":
		return nil, fmt.Errorf("building %s task: %w: ClusterId is either a literal or a path", kind, ErrShape)
	case r.ID != "":
		return Literal(r.ID), nil
	case r.Path != "":
		return r.Path, nil
	default:
		return nil, fmt.Errorf("building %s task: %w: ClusterId", kind, ErrMissingField)
	}
}

func (r ClusterRef) arn(env Env) string {
	if r.ID == "" {
		return clusterARN(env)
	}
	return strings.TrimSuffix(clusterARN(env), "*") + r.ID
}

// AddStepInput configures a step submission.
type AddStepInput struct {
	Cluster ClusterRef

	// Step is the step definition, passed through verbatim.
	Step any
}

// AddStep submits a step and waits for it to complete.
func AddStep(env Env, in AddStepInput) (Task, error) {
	clusterID, err := in.Cluster.value(KindAddStep)
	if err != nil {
		return Task{}, err
	}
	values := map[string]Value{"ClusterId": clusterID}
	if in.Step != nil {
		values["Step"] = Literal(in.Step)
	}
	params, err := Assemble(KindAddStep, Inputs{Values: values})
	if err != nil {
		return Task{}, err
	}
	resource, err := integration(env, ServiceEMR, ActionAddStep, Sync)
	if err != nil {
		return Task{}, err
	}
	return NewTask(KindAddStep, resource, params, TaskPaths{},
		allow([]string{in.Cluster.arn(env)}, "elasticmapreduce:AddJobFlowSteps", "elasticmapreduce:DescribeStep", "elasticmapreduce:CancelSteps"),
		syncRulePolicy(env, ruleAddJobFlowSteps),
	)
}

// DefaultActionOnFailure applies when a step does not set ActionOnFailure.
const DefaultActionOnFailure = types.ActionOnFailureContinue

// AddEMRStep submits a step described with the EMR API's StepConfig shape.
func AddEMRStep(env Env, cluster ClusterRef, step types.StepConfig) (Task, error) {
	tree, err := StepTree(step)
	if err != nil {
		return Task{}, fmt.Errorf("building %s task: %w", KindAddStep, err)
	}
	return AddStep(env, AddStepInput{Cluster: cluster, Step: tree})
}

// StepTree converts a StepConfig into the Step parameter object.
func StepTree(step types.StepConfig) (*Tree, error) {
	if aws.ToString(step.Name) == "" {
		return nil, fmt.Errorf("%w: Step.Name", ErrMissingField)
	}
	if step.HadoopJarStep == nil || aws.ToString(step.HadoopJarStep.Jar) == "" {
		return nil, fmt.Errorf("%w: Step.HadoopJarStep.Jar", ErrMissingField)
	}
	action := step.ActionOnFailure
	if action == "" {
		action = DefaultActionOnFailure
	}

	jar := step.HadoopJarStep
	args := append([]string{}, jar.Args...)
	props := make([]any, 0, len(jar.Properties))
	for _, kv := range jar.Properties {
		p, err := NewTree(
			Field{Name: "Key", Value: Literal(aws.ToString(kv.Key))},
			Field{Name: "Value", Value: Literal(aws.ToString(kv.Value))},
		)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}

	hadoop := []Field{{Name: "Jar", Value: Literal(aws.ToString(jar.Jar))}}
	if jar.MainClass != nil {
		hadoop = append(hadoop, Field{Name: "MainClass", Value: Literal(aws.ToString(jar.MainClass))})
	}
	hadoop = append(hadoop,
		Field{Name: "Args", Value: Literal(args)},
		Field{Name: "Properties", Value: Literal(props)},
	)
	hadoopTree, err := NewTree(hadoop...)
	if err != nil {
		return nil, err
	}
	return NewTree(
		Field{Name: "Name", Value: Literal(aws.ToString(step.Name))},
		Field{Name: "ActionOnFailure", Value: Literal(string(action))},
		Field{Name: "HadoopJarStep", Value: hadoopTree},
	)
}

// TerminateClusterInput configures a cluster teardown.
type TerminateClusterInput struct {
	Cluster ClusterRef
}

// TerminateCluster terminates a cluster and waits until it is gone.
func TerminateCluster(env Env, in TerminateClusterInput) (Task, error) {
	clusterID, err := in.Cluster.value(KindTerminateCluster)
	if err != nil {
		return Task{}, err
	}
	params, err := Assemble(KindTerminateCluster, Inputs{Values: map[string]Value{"ClusterId": clusterID}})
	if err != nil {
		return Task{}, err
	}
	resource, err := integration(env, ServiceEMR, ActionTerminateCluster, Sync)
	if err != nil {
		return Task{}, err
	}
	return NewTask(KindTerminateCluster, resource, params, TaskPaths{},
		allow([]string{in.Cluster.arn(env)}, "elasticmapreduce:TerminateJobFlows", "elasticmapreduce:DescribeCluster"),
		syncRulePolicy(env, ruleTerminateJobFlow),
	)
}
