package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/emrlaunch/emrlaunch/internal/sfn"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.emrlaunch/emrlaunch.yaml"
)

// Store backends.
const (
	StoreFile     = "file"
	StoreS3       = "s3"
	StorePostgres = "postgres"
	StoreMongo    = "mongodb"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the top-level configuration.
type Config struct {
	Version   int                       `yaml:"version"`
	AWS       AWSConfig                 `yaml:"aws,omitempty"`
	Store     StoreConfig               `yaml:"store,omitempty"`
	Profile   ProfileRef                `yaml:"profile,omitempty"`
	Functions map[string]FunctionConfig `yaml:"functions,omitempty"`
	Logging   LogConfig                 `yaml:"logging,omitempty"`
}

// AWSConfig locates the account the definitions are generated for. Empty
// partition, region or account are resolved at deploy time.
type AWSConfig struct {
	Region    string            `yaml:"region,omitempty"`
	Profile   string            `yaml:"profile,omitempty"`
	Partition string            `yaml:"partition,omitempty"`
	Account   string            `yaml:"account,omitempty"`
	S3Bucket  string            `yaml:"s3_bucket,omitempty"`
	S3Prefix  string            `yaml:"s3_prefix,omitempty"` // default emrlaunch/
	Tags      map[string]string `yaml:"tags,omitempty"`
}

// StoreConfig selects where profiles and cluster configurations live.
type StoreConfig struct {
	Type             string `yaml:"type,omitempty"` // file, s3, postgres or mongodb
	Directory        string `yaml:"directory,omitempty"`
	Bucket           string `yaml:"bucket,omitempty"`
	Prefix           string `yaml:"prefix,omitempty"`
	ConnectionString string `yaml:"connection_string,omitempty"`
	Database         string `yaml:"database,omitempty"`
	Table            string `yaml:"table,omitempty"`
}

// ProfileRef names the EMR profile whose roles launched clusters may assume.
type ProfileRef struct {
	Namespace string `yaml:"namespace,omitempty"`
	Name      string `yaml:"name,omitempty"`
}

// FunctionConfig locates a backing function by name or full ARN.
type FunctionConfig struct {
	Name string `yaml:"name,omitempty"`
	ARN  string `yaml:"arn,omitempty"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level     string `yaml:"level,omitempty"`     // debug, info, warn, error
	Directory string `yaml:"directory,omitempty"` // default ~/.emrlaunch/logs/
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.AWS.S3Prefix == "" {
		c.AWS.S3Prefix = "emrlaunch/"
	}
	if c.Store.Type == "" {
		c.Store.Type = StoreFile
	}
	if c.Store.Type == StoreFile && c.Store.Directory == "" {
		c.Store.Directory = "~/.emrlaunch/store/"
	}
	c.Store.Directory = ExpandHome(c.Store.Directory)
	if c.Store.Type == StoreMongo && c.Store.Database == "" {
		c.Store.Database = "emrlaunch"
	}
	if c.Store.Type == StorePostgres && c.Store.Table == "" {
		c.Store.Table = "emr_launch_documents"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.emrlaunch/logs/")
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var problems []string
	switch c.Store.Type {
	case StoreFile:
		if c.Store.Directory == "" {
			problems = append(problems, "store.directory is required for the file store")
		}
	case StoreS3:
		if c.Store.Bucket == "" {
			problems = append(problems, "store.bucket is required for the s3 store")
		}
	case StorePostgres, StoreMongo:
		if c.Store.ConnectionString == "" {
			problems = append(problems, fmt.Sprintf("store.connection_string is required for the %s store", c.Store.Type))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store type %q", c.Store.Type))
	}
	for _, key := range c.FunctionKeys() {
		if f := c.Functions[key]; f.Name == "" && f.ARN == "" {
			problems = append(problems, fmt.Sprintf("functions.%s needs a name or an arn", key))
		}
	}
	if (c.Profile.Namespace == "") != (c.Profile.Name == "") {
		problems = append(problems, "profile needs both namespace and name")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Env is the deployment context for the builders.
func (c *Config) Env() sfn.Env {
	return sfn.Env{Partition: c.AWS.Partition, Region: c.AWS.Region, Account: c.AWS.Account}
}

// FunctionKeys returns the configured function keys, sorted.
func (c *Config) FunctionKeys() []string {
	keys := make([]string, 0, len(c.Functions))
	for k := range c.Functions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Callables resolves every configured function in env.
func (c *Config) Callables(env sfn.Env) (map[string]sfn.Callable, error) {
	out := make(map[string]sfn.Callable, len(c.Functions))
	for _, key := range c.FunctionKeys() {
		f := c.Functions[key]
		fn, err := sfn.NewCallable(env, f.Name, f.ARN)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", key, err)
		}
		out[key] = fn
	}
	return out, nil
}

var secretPattern = regexp.MustCompile(`\$\{(ENV|VAULT|AWS_SM):([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	var err error
	c.Store.ConnectionString, err = c.resolve(c.Store.ConnectionString)
	if err != nil {
		return fmt.Errorf("store connection string: %w", err)
	}
	for _, key := range c.FunctionKeys() {
		f := c.Functions[key]
		if f.ARN, err = c.resolve(f.ARN); err != nil {
			return fmt.Errorf("function %s arn: %w", key, err)
		}
		c.Functions[key] = f
	}
	return nil
}

func (c *Config) resolve(val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}
	if matches[1] == "AWS_SM" {
		return resolveAWSSecretsManager(c.AWS.Region, c.AWS.Profile, matches[2])
	}
	return ResolveValue(val)
}

// ResolveValue resolves secret references in a string value.
func ResolveValue(val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	provider := matches[1]
	ref := matches[2]

	switch provider {
	case "ENV":
		v := os.Getenv(ref)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", ref)
		}
		return v, nil
	case "VAULT":
		return resolveVault(ref)
	case "AWS_SM":
		return resolveAWSSecretsManager("", "", ref)
	default:
		return "", fmt.Errorf("unknown secrets provider: %s", provider)
	}
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
