package sfn

import (
	"errors"
	"testing"
)

func TestNewIntegration_ARNs(t *testing.T) {
	tests := []struct {
		service Service
		action  Action
		pattern IntegrationPattern
		want    string
	}{
		{ServiceEMR, ActionCreateCluster, Sync, "arn:aws:states:::elasticmapreduce:createCluster.sync"},
		{ServiceEMR, ActionAddStep, RequestResponse, "arn:aws:states:::elasticmapreduce:addStep"},
		{ServiceEMR, ActionTerminateCluster, Sync, "arn:aws:states:::elasticmapreduce:terminateCluster.sync"},
		{ServiceStates, ActionStartExecution, WaitForTaskToken, "arn:aws:states:::states:startExecution.waitForTaskToken"},
		{ServiceLambda, ActionInvoke, WaitForTaskToken, "arn:aws:states:::lambda:invoke.waitForTaskToken"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r, err := NewIntegration(Env{Partition: "aws"}, tt.service, tt.action, tt.pattern)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.ARN() != tt.want {
				t.Errorf("ARN = %q, want %q", r.ARN(), tt.want)
			}
			if r.Pattern() != tt.pattern {
				t.Errorf("Pattern = %s, want %s", r.Pattern(), tt.pattern)
			}
		})
	}
}

func TestNewIntegration_Partition(t *testing.T) {
	r, err := NewIntegration(Env{Partition: "aws-cn"}, ServiceEMR, ActionAddStep, Sync)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "arn:aws-cn:states:::elasticmapreduce:addStep.sync"; r.ARN() != want {
		t.Errorf("ARN = %q, want %q", r.ARN(), want)
	}

	if _, err := NewIntegration(Env{}, ServiceEMR, ActionAddStep, Sync); err == nil {
		t.Error("expected error for empty partition")
	}
}

func TestNewIntegration_Unknown(t *testing.T) {
	tests := []struct {
		name    string
		service Service
		action  Action
		pattern IntegrationPattern
	}{
		{"service", "glue", "startJobRun", Sync},
		{"action", ServiceEMR, ActionStartExecution, Sync},
		{"pattern", ServiceLambda, ActionInvoke, Sync},
		{"combined suffixes", ServiceStates, ActionStartExecution, ".sync.waitForTaskToken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIntegration(Env{Partition: "aws"}, tt.service, tt.action, tt.pattern)
			if !errors.Is(err, ErrUnknownIntegration) {
				t.Errorf("err = %v, want ErrUnknownIntegration", err)
			}
		})
	}
}

func TestNewCallable(t *testing.T) {
	c, err := NewCallable(Env{Partition: "aws", Region: "eu-west-1", Account: "111111111111"}, "RunJobFlow", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "arn:aws:lambda:eu-west-1:111111111111:function:RunJobFlow"; c.ARN() != want {
		t.Errorf("ARN = %q, want %q", c.ARN(), want)
	}

	c, err = NewCallable(Env{}, "", "arn:aws:lambda:us-east-1:1:function:Named:live")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name() != "Named" {
		t.Errorf("Name = %q, want %q", c.Name(), "Named")
	}

	c, err = NewCallable(Env{}, "Placeholder", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "arn:${AWS::Partition}:lambda:${AWS::Region}:${AWS::AccountId}:function:Placeholder"; c.ARN() != want {
		t.Errorf("ARN = %q, want %q", c.ARN(), want)
	}

	if _, err := NewCallable(Env{}, "", ""); !errors.Is(err, ErrMissingField) {
		t.Errorf("err = %v, want ErrMissingField", err)
	}
}
