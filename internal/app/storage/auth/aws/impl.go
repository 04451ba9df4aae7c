// Package aws issues AWS RDS IAM authentication tokens for the database.
package aws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"

	"github.com/stacklok/oparl-sync/internal/config"
)

// RegionDetect asks the instance metadata service for the region
const RegionDetect = "detect"

const imdsTimeout = 2 * time.Second

// TokenSource builds RDS IAM tokens for one database user. Tokens are
// valid for 15 minutes; every call signs a fresh one.
type TokenSource struct {
	endpoint string
	region   string
	user     string
	creds    awssdk.CredentialsProvider
}

// Option customizes a TokenSource
type Option func(*options)

type options struct {
	detectRegion func(ctx context.Context) (string, error)
	creds        awssdk.CredentialsProvider
}

// WithRegionDetector replaces the instance metadata lookup used when the
// region is "detect"
func WithRegionDetector(fn func(ctx context.Context) (string, error)) Option {
	return func(o *options) {
		o.detectRegion = fn
	}
}

// WithCredentials replaces the default AWS credential chain
func WithCredentials(p awssdk.CredentialsProvider) Option {
	return func(o *options) {
		o.creds = p
	}
}

// NewTokenSource resolves the region and credentials for cfg once. The
// credentials provider is cached and refreshes itself.
func NewTokenSource(ctx context.Context, cfg *config.DatabaseConfig, user string, opts ...Option) (*TokenSource, error) {
	if cfg.DynamicAuth == nil || cfg.DynamicAuth.AWSRDSIAM == nil {
		return nil, fmt.Errorf("AWS RDS IAM authentication is not configured")
	}

	o := &options{detectRegion: imdsRegion}
	for _, opt := range opts {
		opt(o)
	}

	region := cfg.DynamicAuth.AWSRDSIAM.Region
	switch region {
	case "":
		return nil, fmt.Errorf("AWS RDS IAM region is not configured")
	case RegionDetect:
		detected, err := o.detectRegion(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to detect AWS region: %w", err)
		}
		region = detected
	}

	creds := o.creds
	if creds == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		creds = awssdk.NewCredentialsCache(awsCfg.Credentials)
	}

	return &TokenSource{
		endpoint: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		region:   region,
		user:     user,
		creds:    creds,
	}, nil
}

// Region returns the region tokens are signed for
func (s *TokenSource) Region() string {
	return s.region
}

// Token signs a new authentication token
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	token, err := auth.BuildAuthToken(ctx, s.endpoint, s.region, s.user, s.creds)
	if err != nil {
		return "", fmt.Errorf("failed to build RDS IAM token for %s: %w", s.user, err)
	}
	return token, nil
}

func imdsRegion(ctx context.Context) (string, error) {
	client := imds.New(imds.Options{HTTPClient: &http.Client{Timeout: imdsTimeout}})
	out, err := client.GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return "", fmt.Errorf("instance metadata unavailable: %w", err)
	}
	return out.Region, nil
}
