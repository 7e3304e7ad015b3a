package aws

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// RealClient implements Client using the AWS SDK v2.
type RealClient struct {
	cfg       aws.Config
	stsClient *sts.Client
	iamClient *iam.Client
	s3Client  *s3.Client
}

// NewRealClient creates a new AWS client with the given profile and region.
func NewRealClient(ctx context.Context, profile, region string) (*RealClient, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &RealClient{
		cfg:       cfg,
		stsClient: sts.NewFromConfig(cfg),
		iamClient: iam.NewFromConfig(cfg),
		s3Client:  s3.NewFromConfig(cfg),
	}, nil
}

// Region is the region the client resolved from the environment.
func (c *RealClient) Region() string { return c.cfg.Region }

// VerifyCredentials checks the current AWS credentials using STS.
func (c *RealClient) VerifyCredentials(ctx context.Context) (*CallerIdentity, error) {
	out, err := c.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("getting caller identity: %w", err)
	}

	return &CallerIdentity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}, nil
}

// SimulateActions evaluates checks against the principal's policies. Checks
// sharing a resource are simulated in one call.
func (c *RealClient) SimulateActions(ctx context.Context, principalARN string, checks []ActionCheck) ([]Decision, error) {
	var resources []string
	byResource := map[string][]string{}
	for _, ch := range checks {
		if _, ok := byResource[ch.Resource]; !ok {
			resources = append(resources, ch.Resource)
		}
		byResource[ch.Resource] = append(byResource[ch.Resource], ch.Action)
	}

	var decisions []Decision
	for _, res := range resources {
		paginator := iam.NewSimulatePrincipalPolicyPaginator(c.iamClient, &iam.SimulatePrincipalPolicyInput{
			PolicySourceArn: aws.String(principalARN),
			ActionNames:     byResource[res],
			ResourceArns:    []string{res},
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("simulating policy on %s: %w", res, err)
			}
			for _, r := range page.EvaluationResults {
				decisions = append(decisions, Decision{
					ActionCheck: ActionCheck{Action: aws.ToString(r.EvalActionName), Resource: res},
					Allowed:     r.EvalDecision == "allowed",
					Decision:    string(r.EvalDecision),
				})
			}
		}
	}
	return decisions, nil
}

// UploadToS3 uploads data bytes to an S3 bucket.
func (c *RealClient) UploadToS3(ctx context.Context, bucket, key string, data []byte) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("uploading to s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// DeleteS3Prefix deletes all objects under a given prefix in an S3 bucket.
func (c *RealClient) DeleteS3Prefix(ctx context.Context, bucket, prefix string) error {
	paginator := s3.NewListObjectsV2Paginator(c.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("listing objects under s3://%s/%s: %w", bucket, prefix, err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		objects := make([]s3types.ObjectIdentifier, len(page.Contents))
		for i, obj := range page.Contents {
			objects[i] = s3types.ObjectIdentifier{Key: obj.Key}
		}
		_, err = c.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3types.Delete{Objects: objects},
		})
		if err != nil {
			return fmt.Errorf("deleting objects under s3://%s/%s: %w", bucket, prefix, err)
		}
	}
	return nil
}
