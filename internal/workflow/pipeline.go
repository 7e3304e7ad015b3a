package workflow

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/emr/types"
	"gopkg.in/yaml.v3"

	"github.com/emrlaunch/emrlaunch/internal/sfn"
)

var ErrUnknownFunction = errors.New("unknown function")

// Pipeline is a YAML description of a linear state machine.
type Pipeline struct {
	Name           string     `yaml:"name"`
	Comment        string     `yaml:"comment,omitempty"`
	TimeoutSeconds int        `yaml:"timeout_seconds,omitempty"`
	OnFailure      *FailSpec  `yaml:"on_failure,omitempty"`
	Steps          []StepSpec `yaml:"steps"`
}

// FailSpec names the Fail state every step error is routed to.
type FailSpec struct {
	Name  string `yaml:"name"`
	Error string `yaml:"error,omitempty"`
	Cause string `yaml:"cause,omitempty"`
}

// StepSpec is one pipeline step. With holds kind-specific settings.
type StepSpec struct {
	Name             string       `yaml:"name"`
	Type             sfn.TaskKind `yaml:"type"`
	Function         string       `yaml:"function,omitempty"`
	Comment          string       `yaml:"comment,omitempty"`
	TimeoutSeconds   int          `yaml:"timeout_seconds,omitempty"`
	HeartbeatSeconds int          `yaml:"heartbeat_seconds,omitempty"`
	Retry            []RetrySpec  `yaml:"retry,omitempty"`
	With             yaml.Node    `yaml:"with,omitempty"`
}

type RetrySpec struct {
	Errors          []string `yaml:"errors,omitempty"`
	IntervalSeconds int      `yaml:"interval_seconds,omitempty"`
	MaxAttempts     int      `yaml:"max_attempts,omitempty"`
	BackoffRate     float64  `yaml:"backoff_rate,omitempty"`
}

// LoadPipeline reads a pipeline file.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline: %w", err)
	}
	return ParsePipeline(data)
}

// ParsePipeline decodes a pipeline document.
func ParsePipeline(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing pipeline: %w", err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("parsing pipeline: %w: name", sfn.ErrMissingField)
	}
	if len(p.Steps) == 0 {
		return nil, fmt.Errorf("parsing pipeline %s: %w", p.Name, ErrEmptyChain)
	}
	return &p, nil
}

// Options is the deployment context a pipeline is compiled against.
type Options struct {
	Env sfn.Env

	// Functions maps a function key to its callable.
	Functions map[string]sfn.Callable

	// PassRoles are added to every create-cluster step's policy.
	PassRoles []string
}

// Compile builds every step and links them into a state machine.
func (p *Pipeline) Compile(opts Options) (StateMachine, error) {
	chain := NewChain(p.Comment).WithTimeout(p.TimeoutSeconds)
	for i, s := range p.Steps {
		task, err := s.build(opts)
		if err != nil {
			return StateMachine{}, fmt.Errorf("compiling step %d (%s): %w", i+1, s.Name, err)
		}
		chain.Add(s.Name, task)
	}
	if p.OnFailure != nil {
		chain.OnFailure(p.OnFailure.Name, sfn.Fail{Error: p.OnFailure.Error, Cause: p.OnFailure.Cause})
	}
	return chain.Build()
}

func (s StepSpec) build(opts Options) (sfn.Task, error) {
	task, err := s.task(opts)
	if err != nil {
		return sfn.Task{}, err
	}
	if s.Comment != "" {
		task = task.WithComment(s.Comment)
	}
	if s.TimeoutSeconds > 0 || s.HeartbeatSeconds > 0 {
		task = task.WithTimeout(s.TimeoutSeconds, s.HeartbeatSeconds)
	}
	for _, r := range s.Retry {
		errs := r.Errors
		if len(errs) == 0 {
			errs = []string{sfn.ErrorAll}
		}
		task = task.WithRetry(sfn.Retrier{
			ErrorEquals:     errs,
			IntervalSeconds: r.IntervalSeconds,
			MaxAttempts:     r.MaxAttempts,
			BackoffRate:     r.BackoffRate,
		})
	}
	return task, nil
}

func (s StepSpec) decode(v any) error {
	if s.With.Kind == 0 {
		return nil
	}
	if err := s.With.Decode(v); err != nil {
		return fmt.Errorf("decoding with: %w", err)
	}
	return nil
}

func (s StepSpec) callable(opts Options, key string) (sfn.Callable, error) {
	if key == "" {
		return sfn.Callable{}, fmt.Errorf("%w: function", sfn.ErrMissingField)
	}
	fn, ok := opts.Functions[key]
	if !ok {
		return sfn.Callable{}, fmt.Errorf("%w: %q", ErrUnknownFunction, key)
	}
	return fn, nil
}

type clusterSpec struct {
	ClusterID     string `yaml:"cluster_id,omitempty"`
	ClusterIDPath string `yaml:"cluster_id_path,omitempty"`
}

func (c clusterSpec) ref() sfn.ClusterRef {
	return sfn.ClusterRef{ID: c.ClusterID, Path: sfn.JSONPath(c.ClusterIDPath)}
}

type emrStepSpec struct {
	Name            string            `yaml:"name"`
	ActionOnFailure string            `yaml:"action_on_failure,omitempty"`
	Jar             string            `yaml:"jar"`
	MainClass       string            `yaml:"main_class,omitempty"`
	Args            []string          `yaml:"args,omitempty"`
	Properties      map[string]string `yaml:"properties,omitempty"`
}

func (e emrStepSpec) config() types.StepConfig {
	jar := &types.HadoopJarStepConfig{Jar: aws.String(e.Jar), Args: e.Args}
	if e.MainClass != "" {
		jar.MainClass = aws.String(e.MainClass)
	}
	for _, k := range sortedKeys(e.Properties) {
		jar.Properties = append(jar.Properties, types.KeyValue{Key: aws.String(k), Value: aws.String(e.Properties[k])})
	}
	return types.StepConfig{
		Name:            aws.String(e.Name),
		ActionOnFailure: types.ActionOnFailure(e.ActionOnFailure),
		HadoopJarStep:   jar,
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s StepSpec) task(opts Options) (sfn.Task, error) {
	env := opts.Env
	switch s.Type {
	case sfn.KindStartExecution:
		var w struct {
			StateMachineARN string `yaml:"state_machine_arn"`
			Input           any    `yaml:"input,omitempty"`
			Name            string `yaml:"name,omitempty"`
		}
		if err := s.decode(&w); err != nil {
			return sfn.Task{}, err
		}
		return sfn.StartExecution(env, sfn.StartExecutionInput{StateMachineARN: w.StateMachineARN, Input: w.Input, Name: w.Name})

	case sfn.KindCreateCluster:
		var w struct {
			ConfigurationPath string   `yaml:"configuration_path,omitempty"`
			PassRoles         []string `yaml:"pass_roles,omitempty"`
		}
		if err := s.decode(&w); err != nil {
			return sfn.Task{}, err
		}
		path := sfn.JSONPath(w.ConfigurationPath)
		if path == "" {
			path = sfn.ClusterPath
		}
		return sfn.CreateCluster(env, sfn.CreateClusterInput{
			ConfigurationPath: path,
			PassRoles:         append(append([]string(nil), opts.PassRoles...), w.PassRoles...),
		})

	case sfn.KindAddStep:
		var w struct {
			clusterSpec `yaml:",inline"`
			Step        emrStepSpec `yaml:"step"`
		}
		if err := s.decode(&w); err != nil {
			return sfn.Task{}, err
		}
		return sfn.AddEMRStep(env, w.ref(), w.Step.config())

	case sfn.KindTerminateCluster:
		var w clusterSpec
		if err := s.decode(&w); err != nil {
			return sfn.Task{}, err
		}
		return sfn.TerminateCluster(env, sfn.TerminateClusterInput{Cluster: w.ref()})

	case sfn.KindLoadClusterConfiguration:
		var w struct {
			ClusterName            string            `yaml:"cluster_name"`
			ClusterTags            map[string]string `yaml:"cluster_tags,omitempty"`
			ProfileNamespace       string            `yaml:"profile_namespace"`
			ProfileName            string            `yaml:"profile_name"`
			ConfigurationNamespace string            `yaml:"configuration_namespace"`
			ConfigurationName      string            `yaml:"configuration_name"`
		}
		if err := s.decode(&w); err != nil {
			return sfn.Task{}, err
		}
		fn, err := s.callable(opts, s.Function)
		if err != nil {
			return sfn.Task{}, err
		}
		var tags []types.Tag
		for _, k := range sortedKeys(w.ClusterTags) {
			tags = append(tags, types.Tag{Key: aws.String(k), Value: aws.String(w.ClusterTags[k])})
		}
		return sfn.LoadClusterConfiguration(env, sfn.LoadClusterConfigurationInput{
			Function:               fn,
			ClusterName:            w.ClusterName,
			ClusterTags:            tags,
			ProfileNamespace:       w.ProfileNamespace,
			ProfileName:            w.ProfileName,
			ConfigurationNamespace: w.ConfigurationNamespace,
			ConfigurationName:      w.ConfigurationName,
		})

	case sfn.KindOverrideClusterConfigs:
		var w struct {
			AllowedOverrides map[string]string `yaml:"allowed_overrides,omitempty"`
		}
		if err := s.decode(&w); err != nil {
			return sfn.Task{}, err
		}
		fn, err := s.callable(opts, s.Function)
		if err != nil {
			return sfn.Task{}, err
		}
		return sfn.OverrideClusterConfigs(env, sfn.OverrideClusterConfigsInput{Function: fn, AllowedOverrides: w.AllowedOverrides})

	case sfn.KindFailIfClusterRunning:
		var w struct {
			Default bool `yaml:"default_fail_if_cluster_running"`
		}
		if err := s.decode(&w); err != nil {
			return sfn.Task{}, err
		}
		fn, err := s.callable(opts, s.Function)
		if err != nil {
			return sfn.Task{}, err
		}
		return sfn.FailIfClusterRunning(env, sfn.FailIfClusterRunningInput{Function: fn, DefaultFailIfClusterRunning: w.Default})

	case sfn.KindUpdateClusterTags:
		fn, err := s.callable(opts, s.Function)
		if err != nil {
			return sfn.Task{}, err
		}
		return sfn.UpdateClusterTags(env, fn)

	case sfn.KindCheckClusterStatus:
		var w clusterSpec
		if err := s.decode(&w); err != nil {
			return sfn.Task{}, err
		}
		fn, err := s.callable(opts, s.Function)
		if err != nil {
			return sfn.Task{}, err
		}
		return sfn.CheckClusterStatus(env, sfn.CheckClusterStatusInput{Function: fn, Cluster: w.ref()})

	case sfn.KindRunJobFlow:
		var w struct {
			CheckStatusFunction string `yaml:"check_status_function"`
			RuleName            string `yaml:"rule_name"`
			FireAndForget       bool   `yaml:"fire_and_forget,omitempty"`
			ResultPath          string `yaml:"result_path,omitempty"`
		}
		if err := s.decode(&w); err != nil {
			return sfn.Task{}, err
		}
		fn, err := s.callable(opts, s.Function)
		if err != nil {
			return sfn.Task{}, err
		}
		check, err := s.callable(opts, w.CheckStatusFunction)
		if err != nil {
			return sfn.Task{}, fmt.Errorf("check status: %w", err)
		}
		return sfn.RunJobFlow(env, sfn.RunJobFlowInput{
			Function:      fn,
			CheckStatus:   check,
			RuleName:      w.RuleName,
			FireAndForget: w.FireAndForget,
			ResultPath:    sfn.JSONPath(w.ResultPath),
		})
	}
	return sfn.Task{}, fmt.Errorf("%w: %q", sfn.ErrUnknownTaskKind, s.Type)
}
