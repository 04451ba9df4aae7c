package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DatabasePasswordEnv is the environment variable consulted when no password file is set
const DatabasePasswordEnv = EnvPrefix + "_DATABASE_PASSWORD"

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username used by the running engine
	User string `yaml:"user"`

	// MigrationUser is the database user used for schema migrations.
	// Falls back to User when empty.
	MigrationUser string `yaml:"migrationUser,omitempty"`

	// PasswordFile is the path to a file containing the database password.
	// The file should contain only the password with optional trailing whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`

	// DynamicAuth configures short-lived credentials instead of a static password
	DynamicAuth *DynamicAuthConfig `yaml:"dynamicAuth,omitempty"`
}

// DynamicAuthConfig holds the supported dynamic authentication methods
type DynamicAuthConfig struct {
	AWSRDSIAM *DynamicAuthAWSRDSIAM `yaml:"awsRdsIam,omitempty"`
}

// DynamicAuthAWSRDSIAM configures AWS RDS IAM authentication.
// Region may be "detect" to resolve it from the instance metadata service.
type DynamicAuthAWSRDSIAM struct {
	Region string `yaml:"region"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from OPARL_SYNC_DATABASE_PASSWORD environment variable
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(DatabasePasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", DatabasePasswordEnv,
	)
}

// GetMigrationUser returns the user that runs schema migrations
func (d *DatabaseConfig) GetMigrationUser() string {
	if d.MigrationUser != "" {
		return d.MigrationUser
	}
	return d.User
}

func (d *DatabaseConfig) sslMode() string {
	if d.SSLMode == "" {
		return "require"
	}
	return d.SSLMode
}

// GetConnectionString builds a PostgreSQL connection string for the engine user.
// With dynamic auth configured no password is embedded; it is injected per
// connection instead.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	if d.DynamicAuth != nil {
		return d.BuildConnectionStringWithAuth(d.User, ""), nil
	}

	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}
	return d.BuildConnectionStringWithAuth(d.User, password), nil
}

// BuildConnectionStringWithAuth builds a connection URL for the given user and
// secret. An empty secret produces a URL without password.
// The secret is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) BuildConnectionStringWithAuth(user, secret string) string {
	userInfo := url.User(user)
	if secret != "" {
		userInfo = url.UserPassword(user, secret)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: "sslmode=" + d.sslMode(),
	}
	return u.String()
}
