package aws

import "context"

// MockClient is a test double for the Client interface.
type MockClient struct {
	Identity    *CallerIdentity
	IdentityErr error
	SimulateErr error
	UploadErr   error
	DeleteErr   error

	// Denied holds the checks the simulation rejects.
	Denied map[ActionCheck]bool

	// Track calls
	SimulatedPrincipals []string
	UploadedObjects     map[string][]byte // bucket/key → data
	DeletedPrefixes     []string
}

// NewMockClient creates a new MockClient with default values.
func NewMockClient() *MockClient {
	return &MockClient{
		Identity: &CallerIdentity{
			Account: "123456789012",
			ARN:     "arn:aws:iam::123456789012:user/test",
			UserID:  "AIDA12345",
		},
		Denied:          map[ActionCheck]bool{},
		UploadedObjects: make(map[string][]byte),
	}
}

func (m *MockClient) VerifyCredentials(_ context.Context) (*CallerIdentity, error) {
	return m.Identity, m.IdentityErr
}

func (m *MockClient) SimulateActions(_ context.Context, principalARN string, checks []ActionCheck) ([]Decision, error) {
	if m.SimulateErr != nil {
		return nil, m.SimulateErr
	}
	m.SimulatedPrincipals = append(m.SimulatedPrincipals, principalARN)
	out := make([]Decision, 0, len(checks))
	for _, c := range checks {
		d := Decision{ActionCheck: c, Allowed: true, Decision: "allowed"}
		if m.Denied[c] {
			d.Allowed, d.Decision = false, "implicitDeny"
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *MockClient) UploadToS3(_ context.Context, bucket, key string, data []byte) error {
	if m.UploadErr != nil {
		return m.UploadErr
	}
	m.UploadedObjects[bucket+"/"+key] = data
	return nil
}

func (m *MockClient) DeleteS3Prefix(_ context.Context, bucket, prefix string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.DeletedPrefixes = append(m.DeletedPrefixes, bucket+"/"+prefix)
	return nil
}
