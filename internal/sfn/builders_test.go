package sfn

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/emr/types"
)

var testEnv = Env{Partition: "aws", Region: "us-east-1", Account: "123456789012"}

func testCallable(t *testing.T, name string) Callable {
	t.Helper()
	c, err := NewCallable(testEnv, name, "")
	if err != nil {
		t.Fatalf("creating callable: %v", err)
	}
	return c
}

func TestLoadClusterConfiguration(t *testing.T) {
	fn := testCallable(t, "LoadClusterConfiguration")
	task, err := LoadClusterConfiguration(testEnv, LoadClusterConfigurationInput{
		Function:               fn,
		ClusterName:            "test-cluster",
		ClusterTags:            []types.Tag{{Key: aws.String("Key1"), Value: aws.String("Value1")}},
		ProfileNamespace:       "test",
		ProfileName:            "test-profile",
		ConfigurationNamespace: "test",
		ConfigurationName:      "test-configuration",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertJSON(t, task, `{
		"End": true,
		"OutputPath": "$",
		"Parameters": {
			"ClusterName": "test-cluster",
			"ClusterTags": [{"Key": "Key1", "Value": "Value1"}],
			"ConfigurationName": "test-configuration",
			"ConfigurationNamespace": "test",
			"ProfileName": "test-profile",
			"ProfileNamespace": "test"
		},
		"Resource": "arn:aws:lambda:us-east-1:123456789012:function:LoadClusterConfiguration",
		"ResultPath": "$.ClusterConfiguration",
		"Type": "Task"
	}`)
}

func TestLoadClusterConfiguration_EmptyTags(t *testing.T) {
	task, err := LoadClusterConfiguration(testEnv, LoadClusterConfigurationInput{
		Function:               testCallable(t, "Load"),
		ClusterName:            "c",
		ProfileNamespace:       "ns",
		ProfileName:            "p",
		ConfigurationNamespace: "ns",
		ConfigurationName:      "cfg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tags, _ := task.Parameters().Get("ClusterTags")
	assertJSON(t, tags, `[]`)
}

func TestLoadClusterConfiguration_MissingField(t *testing.T) {
	_, err := LoadClusterConfiguration(testEnv, LoadClusterConfigurationInput{
		Function:    testCallable(t, "Load"),
		ClusterName: "c",
	})
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("err = %v, want ErrMissingField", err)
	}
}

func TestOverrideClusterConfigs(t *testing.T) {
	task, err := OverrideClusterConfigs(testEnv, OverrideClusterConfigsInput{Function: testCallable(t, "OverrideClusterConfigs")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertJSON(t, task, `{
		"End": true,
		"Parameters": {
			"ExecutionInput.$": "$$.Execution.Input",
			"ClusterConfiguration.$": "$.ClusterConfiguration.Cluster"
		},
		"OutputPath": "$",
		"Type": "Task",
		"Resource": "arn:aws:lambda:us-east-1:123456789012:function:OverrideClusterConfigs",
		"ResultPath": "$.ClusterConfiguration.Cluster"
	}`)
}

func TestOverrideClusterConfigs_AllowedOverrides(t *testing.T) {
	task, err := OverrideClusterConfigs(testEnv, OverrideClusterConfigsInput{
		Function:         testCallable(t, "OverrideClusterConfigs"),
		AllowedOverrides: map[string]string{"ClusterName": "Name"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertJSON(t, task.Parameters(), `{
		"ExecutionInput.$": "$$.Execution.Input",
		"ClusterConfiguration.$": "$.ClusterConfiguration.Cluster",
		"AllowedClusterConfigOverrides": {"ClusterName": "Name"}
	}`)
}

func TestFailIfClusterRunning(t *testing.T) {
	task, err := FailIfClusterRunning(testEnv, FailIfClusterRunningInput{
		Function:                    testCallable(t, "FailIfClusterRunning"),
		DefaultFailIfClusterRunning: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertJSON(t, task, `{
		"End": true,
		"Parameters": {
			"ExecutionInput.$": "$$.Execution.Input",
			"DefaultFailIfClusterRunning": true,
			"ClusterConfiguration.$": "$.ClusterConfiguration.Cluster"
		},
		"OutputPath": "$",
		"Type": "Task",
		"Resource": "arn:aws:lambda:us-east-1:123456789012:function:FailIfClusterRunning",
		"ResultPath": "$.ClusterConfiguration.Cluster"
	}`)
}

func TestUpdateClusterTags(t *testing.T) {
	task, err := UpdateClusterTags(testEnv, testCallable(t, "UpdateClusterTags"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertJSON(t, task, `{
		"End": true,
		"Parameters": {
			"ExecutionInput.$": "$$.Execution.Input",
			"ClusterConfiguration.$": "$.ClusterConfiguration.Cluster"
		},
		"OutputPath": "$",
		"Type": "Task",
		"Resource": "arn:aws:lambda:us-east-1:123456789012:function:UpdateClusterTags",
		"ResultPath": "$.ClusterConfiguration.Cluster"
	}`)
}

func TestRunJobFlow(t *testing.T) {
	task, err := RunJobFlow(PlaceholderEnv(), RunJobFlowInput{
		Function:    testCallable(t, "RunJobFlow"),
		CheckStatus: testCallable(t, "CheckClusterStatus"),
		RuleName:    "test-task-EventRule",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertJSON(t, task, `{
		"End": true,
		"Parameters": {
			"FunctionName": "RunJobFlow",
			"Payload": {
				"ExecutionInput.$": "$$.Execution.Input",
				"ClusterConfiguration.$": "$.ClusterConfiguration",
				"TaskToken.$": "$$.Task.Token",
				"CheckStatusLambda": "arn:aws:lambda:us-east-1:123456789012:function:CheckClusterStatus",
				"RuleName": "test-task-EventRule",
				"FireAndForget": false
			}
		},
		"Type": "Task",
		"Resource": "arn:${AWS::Partition}:states:::lambda:invoke.waitForTaskToken",
		"ResultPath": "$.LaunchClusterResult"
	}`)
	if task.Resource().Pattern() != WaitForTaskToken {
		t.Errorf("Pattern = %s, want %s", task.Resource().Pattern(), WaitForTaskToken)
	}
}

func TestRunJobFlow_ResultPath(t *testing.T) {
	task, err := RunJobFlow(testEnv, RunJobFlowInput{
		Function:    testCallable(t, "RunJobFlow"),
		CheckStatus: testCallable(t, "CheckClusterStatus"),
		RuleName:    "r",
		ResultPath:  "$.Launch",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := task.ResultPath(); got != "$.Launch" {
		t.Errorf("ResultPath = %q, want %q", got, "$.Launch")
	}
	if got := task.OutputPath(); got != "" {
		t.Errorf("OutputPath = %q, want unset", got)
	}
}

func TestRunJobFlow_Errors(t *testing.T) {
	fn := testCallable(t, "RunJobFlow")
	check := testCallable(t, "CheckClusterStatus")
	tests := []struct {
		name string
		in   RunJobFlowInput
		want error
	}{
		{"no function", RunJobFlowInput{CheckStatus: check, RuleName: "r"}, ErrMissingField},
		{"no checker", RunJobFlowInput{Function: fn, RuleName: "r"}, ErrMissingField},
		{"no rule", RunJobFlowInput{Function: fn, CheckStatus: check}, ErrMissingField},
		{"overwrite", RunJobFlowInput{Function: fn, CheckStatus: check, RuleName: "r", ResultPath: "$"}, ErrShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunJobFlow(testEnv, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCheckClusterStatus(t *testing.T) {
	task, err := CheckClusterStatus(testEnv, CheckClusterStatusInput{Function: testCallable(t, "CheckClusterStatus")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertJSON(t, task, `{
		"End": true,
		"Parameters": {
			"ExecutionInput.$": "$$.Execution.Input",
			"ClusterId.$": "$.LaunchClusterResult.ClusterId"
		},
		"OutputPath": "$",
		"Type": "Task",
		"Resource": "arn:aws:lambda:us-east-1:123456789012:function:CheckClusterStatus",
		"ResultPath": "$.ClusterStatus"
	}`)

	task, err = CheckClusterStatus(testEnv, CheckClusterStatusInput{
		Function: testCallable(t, "CheckClusterStatus"),
		Cluster:  ClusterRef{ID: "j-123"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, _ := task.Parameters().Get("ClusterId")
	assertJSON(t, id, `"j-123"`)
}

func TestCallableBuilders_AugmentResult(t *testing.T) {
	fn := testCallable(t, "fn")
	build := []func() (Task, error){
		func() (Task, error) {
			return LoadClusterConfiguration(testEnv, LoadClusterConfigurationInput{
				Function: fn, ClusterName: "c", ProfileNamespace: "n", ProfileName: "p",
				ConfigurationNamespace: "n", ConfigurationName: "c",
			})
		},
		func() (Task, error) {
			return OverrideClusterConfigs(testEnv, OverrideClusterConfigsInput{Function: fn})
		},
		func() (Task, error) { return FailIfClusterRunning(testEnv, FailIfClusterRunningInput{Function: fn}) },
		func() (Task, error) { return UpdateClusterTags(testEnv, fn) },
		func() (Task, error) { return CheckClusterStatus(testEnv, CheckClusterStatusInput{Function: fn}) },
		func() (Task, error) {
			return RunJobFlow(testEnv, RunJobFlowInput{Function: fn, CheckStatus: fn, RuleName: "r"})
		},
	}
	for _, b := range build {
		task, err := b()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if task.ResultPath() == "" || task.ResultPath() == "$" {
			t.Errorf("%s: ResultPath = %q, want a sub-location", task.Kind(), task.ResultPath())
		}
		if len(task.Policy()) == 0 {
			t.Errorf("%s: expected an invoke policy", task.Kind())
		}
	}
}

func TestCallableBuilders_RequireFunction(t *testing.T) {
	_, err := UpdateClusterTags(testEnv, Callable{})
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("err = %v, want ErrMissingField", err)
	}
}
