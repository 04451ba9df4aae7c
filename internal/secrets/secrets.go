// Package secrets resolves the authentication material of sources.
//
// Secrets are never stored in the configuration file or the database; the
// configuration only names where to find them: a file, an environment
// variable or an AWS Secrets Manager secret.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"github.com/stacklok/oparl-sync/internal/config"
)

var (
	// ErrSecretNotFound is returned when the referenced secret does not exist
	ErrSecretNotFound = errors.New("secret not found")

	// ErrSecretEmpty is returned when the referenced secret holds no value
	ErrSecretEmpty = errors.New("secret value is empty")

	// ErrAccessDenied is returned when the workload may not read the secret
	ErrAccessDenied = errors.New("access denied to secret")

	// ErrNoSecretReference is returned when the auth block names no secret location
	ErrNoSecretReference = errors.New("no secret reference configured")
)

const (
	resourceNotFoundException = "ResourceNotFoundException"
	accessDeniedException     = "AccessDeniedException"
)

// Resolver resolves the secret referenced by a source auth block
type Resolver interface {
	Resolve(ctx context.Context, auth *config.SourceAuthConfig) (string, error)
}

// SecretsManagerAPI is the subset of the AWS Secrets Manager client used here
type SecretsManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// DefaultResolver reads secrets from files, environment variables and AWS Secrets Manager
type DefaultResolver struct {
	mu sync.Mutex
	// clients per region, created lazily so sources without AWS references
	// never load AWS configuration
	clients   map[string]SecretsManagerAPI
	newClient func(ctx context.Context, region string) (SecretsManagerAPI, error)
}

// Option configures a DefaultResolver
type Option func(*DefaultResolver)

// WithSecretsManagerClient uses the given client for every region
func WithSecretsManagerClient(api SecretsManagerAPI) Option {
	return func(r *DefaultResolver) {
		r.newClient = func(context.Context, string) (SecretsManagerAPI, error) {
			return api, nil
		}
	}
}

// NewResolver creates a resolver
func NewResolver(opts ...Option) *DefaultResolver {
	r := &DefaultResolver{
		clients:   make(map[string]SecretsManagerAPI),
		newClient: newAWSClient,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newAWSClient(ctx context.Context, region string) (SecretsManagerAPI, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// Resolve returns the secret named by auth. Sources are checked in the order
// file, environment variable, AWS Secrets Manager.
func (r *DefaultResolver) Resolve(ctx context.Context, auth *config.SourceAuthConfig) (string, error) {
	if auth == nil {
		return "", ErrNoSecretReference
	}

	switch {
	case auth.PasswordFile != "":
		return readFile(auth.PasswordFile)
	case auth.TokenFile != "":
		return readFile(auth.TokenFile)
	case auth.SecretEnv != "":
		value := os.Getenv(auth.SecretEnv)
		if value == "" {
			return "", fmt.Errorf("environment variable %s: %w", auth.SecretEnv, ErrSecretEmpty)
		}
		return value, nil
	case auth.AWSSecretsManager != nil:
		return r.fromSecretsManager(ctx, auth.AWSSecretsManager)
	default:
		return "", ErrNoSecretReference
	}
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", path, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("secret file %s: %w", path, ErrSecretEmpty)
	}
	return value, nil
}

func (r *DefaultResolver) client(ctx context.Context, region string) (SecretsManagerAPI, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[region]; ok {
		return c, nil
	}
	c, err := r.newClient(ctx, region)
	if err != nil {
		return nil, err
	}
	r.clients[region] = c
	return c, nil
}

func (r *DefaultResolver) fromSecretsManager(ctx context.Context, ref *config.AWSSecretRef) (string, error) {
	if ref.SecretID == "" {
		return "", fmt.Errorf("awsSecretsManager.secretId: %w", ErrNoSecretReference)
	}

	api, err := r.client(ctx, ref.Region)
	if err != nil {
		return "", err
	}

	slog.DebugContext(ctx, "Retrieving source secret", "secret_id", ref.SecretID)

	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: awssdk.String(ref.SecretID),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case resourceNotFoundException:
				return "", fmt.Errorf("secret %s: %w", ref.SecretID, ErrSecretNotFound)
			case accessDeniedException:
				return "", fmt.Errorf("secret %s: %w", ref.SecretID, ErrAccessDenied)
			}
		}
		return "", fmt.Errorf("failed to retrieve secret %s: %w", ref.SecretID, err)
	}

	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("secret %s: %w", ref.SecretID, ErrSecretEmpty)
	}
	return *out.SecretString, nil
}
