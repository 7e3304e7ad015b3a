package aws

import (
	"context"
	"fmt"
	"path"
)

// DefinitionUploader publishes generated definitions to S3.
type DefinitionUploader struct {
	client Client
	bucket string
	prefix string
}

// NewDefinitionUploader creates a new definition uploader.
func NewDefinitionUploader(client Client, bucket, prefix string) *DefinitionUploader {
	return &DefinitionUploader{client: client, bucket: bucket, prefix: prefix}
}

// DefinitionSet holds the generated documents of one state machine.
type DefinitionSet struct {
	Name       string
	Definition []byte
	Policy     []byte
}

// UploadResult holds the S3 URIs of uploaded documents.
type UploadResult struct {
	DefinitionS3URI string `yaml:"definition_s3_uri"`
	PolicyS3URI     string `yaml:"policy_s3_uri,omitempty"`
}

// Prefix is where the documents of name are stored.
func (u *DefinitionUploader) Prefix(name string) string {
	return path.Join(u.prefix, name) + "/"
}

// Replace removes previously published documents of name.
func (u *DefinitionUploader) Replace(ctx context.Context, name string) error {
	if err := u.client.DeleteS3Prefix(ctx, u.bucket, u.Prefix(name)); err != nil {
		return fmt.Errorf("removing previous definition: %w", err)
	}
	return nil
}

// Upload publishes the definition and, when present, its policy.
func (u *DefinitionUploader) Upload(ctx context.Context, set DefinitionSet) (*UploadResult, error) {
	if set.Name == "" {
		return nil, fmt.Errorf("uploading definition: name is required")
	}
	result := &UploadResult{}

	defKey := path.Join(u.prefix, set.Name, "definition.asl.json")
	if err := u.client.UploadToS3(ctx, u.bucket, defKey, set.Definition); err != nil {
		return nil, fmt.Errorf("uploading definition: %w", err)
	}
	result.DefinitionS3URI = fmt.Sprintf("s3://%s/%s", u.bucket, defKey)

	if len(set.Policy) > 0 {
		policyKey := path.Join(u.prefix, set.Name, "policy.json")
		if err := u.client.UploadToS3(ctx, u.bucket, policyKey, set.Policy); err != nil {
			return nil, fmt.Errorf("uploading policy: %w", err)
		}
		result.PolicyS3URI = fmt.Sprintf("s3://%s/%s", u.bucket, policyKey)
	}
	return result, nil
}
