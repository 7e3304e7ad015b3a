package sfn

import (
	"errors"
	"fmt"
	"strings"
)

// Env is the deployment context threaded through every builder. Fields may
// hold deploy-time placeholders so one definition is portable across
// partitions, regions and accounts.
type Env struct {
	Partition string `yaml:"partition,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Account   string `yaml:"account,omitempty"`
}

// Placeholders substituted by CloudFormation (DefinitionSubstitutions or Fn::Sub).
const (
	PartitionPlaceholder = "${AWS::Partition}"
	RegionPlaceholder    = "${AWS::Region}"
	AccountPlaceholder   = "${AWS::AccountId}"
)

// PlaceholderEnv resolves partition, region and account at deployment time.
func PlaceholderEnv() Env {
	return Env{
		Partition: PartitionPlaceholder,
		Region:    RegionPlaceholder,
		Account:   AccountPlaceholder,
	}
}

// WithDefaults fills empty fields with placeholders.
func (e Env) WithDefaults() Env {
	if e.Partition == "" {
		e.Partition = PartitionPlaceholder
	}
	if e.Region == "" {
		e.Region = RegionPlaceholder
	}
	if e.Account == "" {
		e.Account = AccountPlaceholder
	}
	return e
}

// Service is a service namespace reachable through an optimized integration.
type Service string

const (
	ServiceEMR    Service = "elasticmapreduce"
	ServiceStates Service = "states"
	ServiceLambda Service = "lambda"
)

// Action is an API action within a service integration.
type Action string

const (
	ActionCreateCluster    Action = "createCluster"
	ActionAddStep          Action = "addStep"
	ActionTerminateCluster Action = "terminateCluster"
	ActionStartExecution   Action = "startExecution"
	ActionInvoke           Action = "invoke"
)

// IntegrationPattern selects how the engine waits on the backing action.
type IntegrationPattern string

const (
	RequestResponse  IntegrationPattern = ""
	Sync             IntegrationPattern = ".sync"
	WaitForTaskToken IntegrationPattern = ".waitForTaskToken"
)

func (p IntegrationPattern) String() string {
	switch p {
	case RequestResponse:
		return "requestResponse"
	case Sync:
		return "sync"
	case WaitForTaskToken:
		return "waitForTaskToken"
	default:
		return string(p)
	}
}

var ErrUnknownIntegration = errors.New("unknown service integration")

// supportedIntegrations is the closed vocabulary of integrations and the
// patterns each one accepts.
var supportedIntegrations = map[Service]map[Action][]IntegrationPattern{
	ServiceEMR: {
		ActionCreateCluster:    {RequestResponse, Sync},
		ActionAddStep:          {RequestResponse, Sync},
		ActionTerminateCluster: {RequestResponse, Sync},
	},
	ServiceStates: {
		ActionStartExecution: {RequestResponse, Sync, WaitForTaskToken},
	},
	ServiceLambda: {
		ActionInvoke: {RequestResponse, WaitForTaskToken},
	},
}

// Resource is the target of a Task state.
type Resource interface {
	ARN() string
	Pattern() IntegrationPattern
}

// Integration is an optimized service integration resource.
type Integration struct {
	partition string
	service   Service
	action    Action
	pattern   IntegrationPattern
}

// NewIntegration validates the (service, action, pattern) triple against the
// supported vocabulary.
func NewIntegration(env Env, service Service, action Action, pattern IntegrationPattern) (Integration, error) {
	if env.Partition == "" {
		return Integration{}, fmt.Errorf("building %s:%s resource: partition is required", service, action)
	}
	actions, ok := supportedIntegrations[service]
	if !ok {
		return Integration{}, fmt.Errorf("service %q: %w", service, ErrUnknownIntegration)
	}
	patterns, ok := actions[action]
	if !ok {
		return Integration{}, fmt.Errorf("action %s:%s: %w", service, action, ErrUnknownIntegration)
	}
	for _, p := range patterns {
		if p == pattern {
			return Integration{partition: env.Partition, service: service, action: action, pattern: pattern}, nil
		}
	}
	return Integration{}, fmt.Errorf("pattern %s for %s:%s: %w", pattern, service, action, ErrUnknownIntegration)
}

// integration is NewIntegration with placeholder defaults for an empty env.
func integration(env Env, service Service, action Action, pattern IntegrationPattern) (Integration, error) {
	return NewIntegration(env.WithDefaults(), service, action, pattern)
}

func (i Integration) ARN() string {
	return "arn:" + i.partition + ":states:::" + string(i.service) + ":" + string(i.action) + string(i.pattern)
}

func (i Integration) Pattern() IntegrationPattern { return i.pattern }
func (i Integration) Service() Service            { return i.service }
func (i Integration) Action() Action              { return i.action }

// Callable is a backing function referenced by name and ARN. As a Resource it
// is invoked directly (request-response).
type Callable struct {
	name string
	arn  string
}

// NewCallable returns a Callable, deriving the ARN from env when arn is empty.
func NewCallable(env Env, name, arn string) (Callable, error) {
	if name == "" && arn == "" {
		return Callable{}, fmt.Errorf("callable: %w: name or arn", ErrMissingField)
	}
	if name == "" {
		name = functionNameFromARN(arn)
	}
	if arn == "" {
		arn = LambdaARN(env.WithDefaults(), name)
	}
	return Callable{name: name, arn: arn}, nil
}

// LambdaARN returns the Lambda function ARN for name in env.
func LambdaARN(env Env, name string) string {
	return fmt.Sprintf("arn:%s:lambda:%s:%s:function:%s", env.Partition, env.Region, env.Account, name)
}

func functionNameFromARN(arn string) string {
	parts := strings.Split(arn, ":")
	for i, p := range parts {
		if p == "function" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return parts[len(parts)-1]
}

func (c Callable) Name() string                { return c.name }
func (c Callable) ARN() string                 { return c.arn }
func (c Callable) Pattern() IntegrationPattern { return RequestResponse }
func (c Callable) IsZero() bool                { return c.arn == "" }

func (c Callable) require(field string) error {
	if c.arn == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return nil
}
