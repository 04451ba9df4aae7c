package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/oparl-sync/internal/config"
)

type fakeSecretsManager struct {
	value *string
	err   error
	calls int
}

func (f *fakeSecretsManager) GetSecretValue(
	_ context.Context,
	params *secretsmanager.GetSecretValueInput,
	_ ...func(*secretsmanager.Options),
) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{
		Name:         params.SecretId,
		SecretString: f.value,
	}, nil
}

func TestResolve_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(path, []byte("  s3cr3t\n"), 0o600))

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o600))

	tests := []struct {
		name    string
		auth    *config.SourceAuthConfig
		want    string
		wantErr error
	}{
		{
			name: "password file is trimmed",
			auth: &config.SourceAuthConfig{PasswordFile: path},
			want: "s3cr3t",
		},
		{
			name: "token file",
			auth: &config.SourceAuthConfig{TokenFile: path},
			want: "s3cr3t",
		},
		{
			name:    "empty file",
			auth:    &config.SourceAuthConfig{TokenFile: empty},
			wantErr: ErrSecretEmpty,
		},
		{
			name:    "nil auth",
			auth:    nil,
			wantErr: ErrNoSecretReference,
		},
		{
			name:    "no reference",
			auth:    &config.SourceAuthConfig{Type: config.AuthTypeBearer},
			wantErr: ErrNoSecretReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewResolver().Resolve(context.Background(), tt.auth)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewResolver().Resolve(context.Background(), &config.SourceAuthConfig{
		PasswordFile: filepath.Join(t.TempDir(), "missing"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve_Env(t *testing.T) {
	t.Setenv("OPARL_SYNC_TEST_SECRET", "from-env")

	got, err := NewResolver().Resolve(context.Background(), &config.SourceAuthConfig{
		SecretEnv: "OPARL_SYNC_TEST_SECRET",
	})
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	_, err = NewResolver().Resolve(context.Background(), &config.SourceAuthConfig{
		SecretEnv: "OPARL_SYNC_TEST_SECRET_UNSET",
	})
	assert.ErrorIs(t, err, ErrSecretEmpty)
}

func TestResolve_SecretsManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fake    *fakeSecretsManager
		want    string
		wantErr error
	}{
		{
			name: "secret string",
			fake: &fakeSecretsManager{value: aws.String("aws-secret")},
			want: "aws-secret",
		},
		{
			name:    "not found",
			fake:    &fakeSecretsManager{err: &smithy.GenericAPIError{Code: "ResourceNotFoundException"}},
			wantErr: ErrSecretNotFound,
		},
		{
			name:    "access denied",
			fake:    &fakeSecretsManager{err: &smithy.GenericAPIError{Code: "AccessDeniedException"}},
			wantErr: ErrAccessDenied,
		},
		{
			name:    "binary secret has no string value",
			fake:    &fakeSecretsManager{},
			wantErr: ErrSecretEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewResolver(WithSecretsManagerClient(tt.fake))
			got, err := r.Resolve(context.Background(), &config.SourceAuthConfig{
				AWSSecretsManager: &config.AWSSecretRef{SecretID: "oparl/source", Region: "eu-central-1"},
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_SecretsManagerOtherError(t *testing.T) {
	t.Parallel()

	boom := errors.New("throttled")
	r := NewResolver(WithSecretsManagerClient(&fakeSecretsManager{err: boom}))
	_, err := r.Resolve(context.Background(), &config.SourceAuthConfig{
		AWSSecretsManager: &config.AWSSecretRef{SecretID: "oparl/source"},
	})
	require.ErrorIs(t, err, boom)
}

func TestResolve_ClientCachedPerRegion(t *testing.T) {
	t.Parallel()

	fake := &fakeSecretsManager{value: aws.String("v")}
	created := 0
	r := NewResolver()
	r.newClient = func(context.Context, string) (SecretsManagerAPI, error) {
		created++
		return fake, nil
	}

	ref := &config.SourceAuthConfig{AWSSecretsManager: &config.AWSSecretRef{SecretID: "a", Region: "eu-west-1"}}
	for range 3 {
		_, err := r.Resolve(context.Background(), ref)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 3, fake.calls)
}
