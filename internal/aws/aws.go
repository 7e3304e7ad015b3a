package aws

import (
	"context"
	"fmt"
	"strings"

	awsarn "github.com/aws/aws-sdk-go-v2/aws/arn"

	"github.com/emrlaunch/emrlaunch/internal/sfn"
)

// Client defines the AWS operations the generator needs. Nothing here
// touches EMR or Step Functions directly.
type Client interface {
	VerifyCredentials(ctx context.Context) (*CallerIdentity, error)
	SimulateActions(ctx context.Context, principalARN string, checks []ActionCheck) ([]Decision, error)
	UploadToS3(ctx context.Context, bucket, key string, data []byte) error
	DeleteS3Prefix(ctx context.Context, bucket, prefix string) error
}

// CallerIdentity holds AWS STS caller identity information.
type CallerIdentity struct {
	Account string
	ARN     string
	UserID  string
}

// ActionCheck is one action/resource pair to simulate.
type ActionCheck struct {
	Action   string
	Resource string
}

// Decision is the simulated outcome of an ActionCheck.
type Decision struct {
	ActionCheck
	Allowed  bool
	Decision string // allowed, explicitDeny or implicitDeny
}

// Partition returns the partition segment of an ARN.
func Partition(arn string) (string, error) {
	parsed, err := awsarn.Parse(arn)
	if err != nil || parsed.Partition == "" {
		return "", fmt.Errorf("malformed ARN %q", arn)
	}
	return parsed.Partition, nil
}

// EnvFromIdentity pins partition and account to the caller's. An empty
// region stays a deploy-time placeholder.
func EnvFromIdentity(id *CallerIdentity, region string) (sfn.Env, error) {
	partition, err := Partition(id.ARN)
	if err != nil {
		return sfn.Env{}, fmt.Errorf("reading caller partition: %w", err)
	}
	return sfn.Env{Partition: partition, Region: region, Account: id.Account}, nil
}

// PrincipalARN maps an STS assumed-role ARN to the IAM role it came from, the
// form IAM policy simulation accepts. Other ARNs are returned unchanged.
func PrincipalARN(arn string) string {
	parsed, err := awsarn.Parse(arn)
	if err != nil || parsed.Service != "sts" || !strings.HasPrefix(parsed.Resource, "assumed-role/") {
		return arn
	}
	role := strings.SplitN(strings.TrimPrefix(parsed.Resource, "assumed-role/"), "/", 2)[0]
	return awsarn.ARN{Partition: parsed.Partition, Service: "iam", AccountID: parsed.AccountID, Resource: "role/" + role}.String()
}
