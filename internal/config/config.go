// Package config provides configuration loading and management for the sync engine.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variables read by the process.
const EnvPrefix = "OPARL_SYNC"

const (
	// AuthTypeNone sends requests without credentials
	AuthTypeNone = "none"

	// AuthTypeBasic uses HTTP basic authentication
	AuthTypeBasic = "basic"

	// AuthTypeBearer sends a static bearer token
	AuthTypeBearer = "bearer"

	// AuthTypeOAuth2 uses the OAuth2 client credentials flow
	AuthTypeOAuth2 = "oauth2"
)

const (
	// NotifyTypeLog writes change events to the structured log
	NotifyTypeLog = "log"

	// NotifyTypeRabbitMQ publishes change events to a RabbitMQ exchange
	NotifyTypeRabbitMQ = "rabbitmq"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path    string
	envFile string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// WithEnvFile loads environment variables from the given dotenv file before
// the configuration is expanded. A missing file is not an error.
func WithEnvFile(path string) Option {
	return func(cfg *loaderConfig) error {
		cfg.envFile = path
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Sources   []SourceConfig   `yaml:"sources"`
	Sync      SyncConfig       `yaml:"sync"`
	Database  *DatabaseConfig  `yaml:"database,omitempty"`
	Notify    NotifyConfig     `yaml:"notify"`
	Server    ServerConfig     `yaml:"server"`
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// SourceConfig defines a single remote council-information endpoint
type SourceConfig struct {
	// ID is the stable identifier of the source
	ID string `yaml:"id"`

	// Name is a human readable label
	Name string `yaml:"name,omitempty"`

	// BaseURL points at the OParl System object of the source
	BaseURL string `yaml:"baseUrl"`

	// Enabled defaults to true when omitted
	Enabled *bool `yaml:"enabled,omitempty"`

	Auth       *SourceAuthConfig `yaml:"auth,omitempty"`
	SyncPolicy *SyncPolicyConfig `yaml:"syncPolicy,omitempty"`

	// Concurrency bounds in-flight requests against this source
	Concurrency int `yaml:"concurrency,omitempty"`

	// RequestsPerSecond paces requests against this source (0 = unlimited)
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`

	// ModifiedSinceSupported tells whether the source honours modified_since.
	// Defaults to true when omitted.
	ModifiedSinceSupported *bool `yaml:"modifiedSinceSupported,omitempty"`
}

// SourceAuthConfig holds references to the authentication material of a source.
// Secrets themselves never live in the configuration file.
type SourceAuthConfig struct {
	Type string `yaml:"type"`

	Username string `yaml:"username,omitempty"`

	// PasswordFile / TokenFile hold the secret for basic / bearer auth
	PasswordFile string `yaml:"passwordFile,omitempty"`
	TokenFile    string `yaml:"tokenFile,omitempty"`

	// SecretEnv names an environment variable holding the secret
	SecretEnv string `yaml:"secretEnv,omitempty"`

	// AWSSecretsManager resolves the secret from AWS Secrets Manager
	AWSSecretsManager *AWSSecretRef `yaml:"awsSecretsManager,omitempty"`

	// OAuth2 client credentials settings
	TokenURL string   `yaml:"tokenUrl,omitempty"`
	ClientID string   `yaml:"clientId,omitempty"`
	Scopes   []string `yaml:"scopes,omitempty"`
}

// AWSSecretRef references a secret stored in AWS Secrets Manager
type AWSSecretRef struct {
	SecretID string `yaml:"secretId"`
	Region   string `yaml:"region,omitempty"`
}

// SyncPolicyConfig defines per-source scheduling settings
type SyncPolicyConfig struct {
	Interval string `yaml:"interval"`
}

// SyncConfig holds the engine wide synchronization settings
type SyncConfig struct {
	BodyWorkers         int           `yaml:"bodyWorkers"`
	PageBatchSize       int           `yaml:"pageBatchSize"`
	RunTimeout          time.Duration `yaml:"runTimeout"`
	RequestTimeout      time.Duration `yaml:"requestTimeout"`
	FullSyncInterval    time.Duration `yaml:"fullSyncInterval"`
	MaxAttempts         uint          `yaml:"maxAttempts"`
	InitialBackoff      time.Duration `yaml:"initialBackoff"`
	MaxBackoff          time.Duration `yaml:"maxBackoff"`
	DefaultCooldown     time.Duration `yaml:"defaultCooldown"`
	FailureThreshold    int           `yaml:"failureThreshold"`
	DegradedMultiplier  float64       `yaml:"degradedMultiplier"`
	MaxDegradedInterval time.Duration `yaml:"maxDegradedInterval"`
	DefaultInterval     time.Duration `yaml:"defaultInterval"`
	QueueSize           int           `yaml:"queueSize"`
	SchedulerWorkers    int           `yaml:"schedulerWorkers"`
	DefaultConcurrency  int           `yaml:"defaultConcurrency"`
}

// NotifyConfig selects and configures the downstream change publisher
type NotifyConfig struct {
	Type     string          `yaml:"type"`
	RabbitMQ *RabbitMQConfig `yaml:"rabbitmq,omitempty"`
}

// RabbitMQConfig defines the broker the change events are published to
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routingKey"`
	QueueName  string `yaml:"queueName"`
}

// ServerConfig configures the administrative HTTP surface
type ServerConfig struct {
	Address string `yaml:"address"`
}

// TelemetryConfig is the on-disk telemetry section. It is converted to the
// telemetry package's own configuration by the application builder.
type TelemetryConfig struct {
	Enabled        bool    `yaml:"enabled"`
	ServiceName    string  `yaml:"serviceName,omitempty"`
	Endpoint       string  `yaml:"endpoint,omitempty"`
	Insecure       bool    `yaml:"insecure,omitempty"`
	TracingEnabled bool    `yaml:"tracingEnabled,omitempty"`
	SamplingRate   float64 `yaml:"samplingRate,omitempty"`
	MetricsEnabled bool    `yaml:"metricsEnabled,omitempty"`
	Prometheus     bool    `yaml:"prometheus,omitempty"`

	// MetricsInterval is the OTLP push interval, e.g. "30s"
	MetricsInterval time.Duration     `yaml:"metricsInterval,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file.
// ${VAR} references in the file are expanded from the environment.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if loaderCfg.envFile != "" {
		_ = godotenv.Load(loaderCfg.envFile)
	} else {
		_ = godotenv.Load()
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates raw YAML configuration.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.setDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) setDefaults() {
	s := &c.Sync
	if s.BodyWorkers == 0 {
		s.BodyWorkers = 4
	}
	if s.PageBatchSize == 0 {
		s.PageBatchSize = 100
	}
	if s.RunTimeout == 0 {
		s.RunTimeout = 2 * time.Hour
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = 30 * time.Second
	}
	if s.FullSyncInterval == 0 {
		s.FullSyncInterval = 7 * 24 * time.Hour
	}
	if s.MaxAttempts == 0 {
		s.MaxAttempts = 5
	}
	if s.InitialBackoff == 0 {
		s.InitialBackoff = 500 * time.Millisecond
	}
	if s.MaxBackoff == 0 {
		s.MaxBackoff = 30 * time.Second
	}
	if s.DefaultCooldown == 0 {
		s.DefaultCooldown = 60 * time.Second
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 3
	}
	if s.DegradedMultiplier == 0 {
		s.DegradedMultiplier = 2
	}
	if s.MaxDegradedInterval == 0 {
		s.MaxDegradedInterval = 24 * time.Hour
	}
	if s.DefaultInterval == 0 {
		s.DefaultInterval = time.Hour
	}
	if s.QueueSize == 0 {
		s.QueueSize = 16
	}
	if s.SchedulerWorkers == 0 {
		s.SchedulerWorkers = 2
	}
	if s.DefaultConcurrency == 0 {
		s.DefaultConcurrency = 4
	}

	if c.Notify.Type == "" {
		c.Notify.Type = NotifyTypeLog
	}
	if r := c.Notify.RabbitMQ; r != nil {
		if r.Exchange == "" {
			r.Exchange = "oparl_sync"
		}
		if r.RoutingKey == "" {
			r.RoutingKey = "entity_changes"
		}
		if r.QueueName == "" {
			r.QueueName = "oparl_entity_changes"
		}
	}

	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	ids := make(map[string]bool)
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.ID == "" {
			return fmt.Errorf("sources[%d]: id is required", i)
		}
		if ids[src.ID] {
			return fmt.Errorf("sources[%d]: duplicate source id '%s'", i, src.ID)
		}
		ids[src.ID] = true

		if err := src.Validate(); err != nil {
			return fmt.Errorf("sources[%d] (%s): %w", i, src.ID, err)
		}
	}

	if c.Sync.DegradedMultiplier < 1 {
		return fmt.Errorf("sync.degradedMultiplier must be >= 1")
	}

	switch c.Notify.Type {
	case NotifyTypeLog:
	case NotifyTypeRabbitMQ:
		if c.Notify.RabbitMQ == nil || c.Notify.RabbitMQ.URL == "" {
			return fmt.Errorf("notify.rabbitmq.url is required when notify.type is %s", NotifyTypeRabbitMQ)
		}
	default:
		return fmt.Errorf("notify.type must be one of %s, %s; got %s", NotifyTypeLog, NotifyTypeRabbitMQ, c.Notify.Type)
	}

	return nil
}

// Validate checks a single source definition. It is also used by the
// administrative surface when sources are added at runtime.
func (s *SourceConfig) Validate() error {
	if s.BaseURL == "" {
		return fmt.Errorf("baseUrl is required")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("baseUrl must be an absolute http(s) URL: %s", s.BaseURL)
	}

	if s.SyncPolicy != nil && s.SyncPolicy.Interval != "" {
		if _, err := time.ParseDuration(s.SyncPolicy.Interval); err != nil {
			return fmt.Errorf("syncPolicy.interval must be a valid duration (e.g., '30m', '1h'): %w", err)
		}
	}

	if s.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}

	if s.Auth != nil {
		return validateAuth(s.Auth)
	}
	return nil
}

func validateAuth(a *SourceAuthConfig) error {
	switch a.Type {
	case "", AuthTypeNone:
		return nil
	case AuthTypeBasic:
		if a.Username == "" {
			return fmt.Errorf("auth.username is required for basic auth")
		}
	case AuthTypeBearer:
	case AuthTypeOAuth2:
		if a.TokenURL == "" || a.ClientID == "" {
			return fmt.Errorf("auth.tokenUrl and auth.clientId are required for oauth2")
		}
	default:
		return fmt.Errorf("unsupported auth.type %q", a.Type)
	}

	if a.PasswordFile == "" && a.TokenFile == "" && a.SecretEnv == "" && a.AWSSecretsManager == nil {
		return fmt.Errorf("auth.%s requires one of passwordFile, tokenFile, secretEnv or awsSecretsManager", a.Type)
	}
	return nil
}

// IsEnabled reports whether the source takes part in scheduling
func (s *SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// SupportsModifiedSince reports whether incremental fetches are possible
func (s *SourceConfig) SupportsModifiedSince() bool {
	return s.ModifiedSinceSupported == nil || *s.ModifiedSinceSupported
}

// GetInterval returns the scheduling interval of the source or the fallback
func (s *SourceConfig) GetInterval(fallback time.Duration) time.Duration {
	if s.SyncPolicy == nil || s.SyncPolicy.Interval == "" {
		return fallback
	}
	d, err := time.ParseDuration(s.SyncPolicy.Interval)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetConcurrency returns the per-source request bound or the fallback
func (s *SourceConfig) GetConcurrency(fallback int) int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return fallback
}
