package secrets

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type secretAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// SecretManagerSource reads the latest version of a Google Secret Manager
// secret whose ID equals the requested name.
type SecretManagerSource struct {
	client    secretAccessor
	projectID string
}

// NewSecretManagerSource creates a Secret Manager client for projectID.
func NewSecretManagerSource(ctx context.Context, projectID string, opts ...option.ClientOption) (*SecretManagerSource, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP project ID is required for the Secret Manager source")
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &SecretManagerSource{client: client, projectID: projectID}, nil
}

// Lookup returns the secret payload. A secret that does not exist is treated
// as unset so the resolver can move on to the next name.
func (s *SecretManagerSource) Lookup(ctx context.Context, name string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name)

	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}

	return string(result.GetPayload().GetData()), nil
}

func (s *SecretManagerSource) Close() error {
	return s.client.Close()
}
