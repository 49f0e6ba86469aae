package ontokit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlrickert/cli-toolkit/toolkit"
	"gopkg.in/yaml.v3"

	"github.com/jlrickert/ontokit/pkg/github"
	"github.com/jlrickert/ontokit/pkg/internal"
	"github.com/jlrickert/ontokit/pkg/onto"
	"github.com/jlrickert/ontokit/pkg/prefs"
)

// AppName names the config directory.
const AppName = "ontokit"

// ConfigFile is the config file name inside the config directory.
const ConfigFile = "config.yaml"

// Config is the user configuration (config.yaml).
type Config struct {
	// APIURL is the GitHub REST API root.
	APIURL string `yaml:"api_url,omitempty"`
	// TokenEnv names the environment variable holding the API token.
	TokenEnv string `yaml:"token_env,omitempty"`
	// BaseDir is the repository directory holding the index and files.
	BaseDir string `yaml:"base_dir,omitempty"`
	// IndexFile is the index document name inside BaseDir.
	IndexFile string `yaml:"index_file,omitempty"`
	// Retries is how often a conflicting index write is re-applied.
	Retries int `yaml:"retries,omitempty"`
	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// Prefixes overrides test id prefixes, keyed by test type.
	Prefixes map[string]string `yaml:"prefixes,omitempty"`
	// SelectionFile is where the repository/branch selection is stored.
	SelectionFile string `yaml:"selection_file,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		APIURL:    github.DefaultAPI,
		TokenEnv:  "GITHUB_TOKEN",
		BaseDir:   "ontologies",
		IndexFile: onto.DefaultIndexFile,
		Timeout:   30 * time.Second,
	}
}

// DefaultConfigPath returns <user config dir>/ontokit/config.yaml as seen by
// rt.
func DefaultConfigPath(rt *toolkit.Runtime) (string, error) {
	dir, err := toolkit.UserConfigPath(rt.Env())
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, ConfigFile), nil
}

// ParseConfig decodes YAML on top of DefaultConfig and validates it.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &InvalidConfigError{Msg: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadConfig reads and parses the config file at path through rt.
func ReadConfig(ctx context.Context, rt *toolkit.Runtime, path string) (*Config, error) {
	lg := internal.LoggerFromContext(ctx)
	b, err := rt.ReadFile(path)
	if err != nil {
		lg.Debug("failed to read config", "path", path, "err", err)
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := ParseConfig(b)
	if err != nil {
		lg.Error("failed to parse config", "path", path, "err", err)
		return nil, err
	}
	lg.Debug("config read", "path", path)
	return cfg, nil
}

// LoadConfig reads path, or the default location when path is empty. A
// missing file at the default location yields DefaultConfig.
func LoadConfig(ctx context.Context, rt *toolkit.Runtime, path string) (*Config, error) {
	if path != "" {
		return ReadConfig(ctx, rt, path)
	}
	def, err := DefaultConfigPath(rt)
	if err != nil {
		return DefaultConfig(), nil
	}
	cfg, err := ReadConfig(ctx, rt, def)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.APIURL != "" && !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return &InvalidConfigError{Msg: fmt.Sprintf("api_url %q must be an http(s) url", c.APIURL)}
	}
	if c.Retries < 0 {
		return &InvalidConfigError{Msg: "retries must not be negative"}
	}
	if c.Timeout < 0 {
		return &InvalidConfigError{Msg: "timeout must not be negative"}
	}
	if strings.Contains(c.IndexFile, "/") {
		return &InvalidConfigError{Msg: "index_file must be a file name"}
	}
	_, err := c.PrefixTable()
	return err
}

// PrefixTable returns the default prefixes with the configured overrides.
func (c *Config) PrefixTable() (onto.PrefixTable, error) {
	overrides := map[onto.TestType]string{}
	for k, v := range c.Prefixes {
		typ, err := onto.ParseTestType(k)
		if err != nil {
			return nil, &InvalidConfigError{Msg: fmt.Sprintf("prefixes: unknown test type %q", k)}
		}
		overrides[typ] = v
	}
	return onto.DefaultPrefixes().With(overrides), nil
}

// Token returns the API token from the configured environment variable of
// rt.
func (c *Config) Token(rt *toolkit.Runtime) string {
	if c.TokenEnv == "" || rt == nil {
		return ""
	}
	return rt.Get(c.TokenEnv)
}

// IndexPath returns the index document path inside the repository.
func (c *Config) IndexPath() string {
	return onto.IndexPath(c.BaseDir, c.IndexFile)
}

// SelectionPath returns the selection file path as seen by rt, defaulting
// to the user config directory.
func (c *Config) SelectionPath(rt *toolkit.Runtime) (string, error) {
	if c.SelectionFile != "" {
		return c.SelectionFile, nil
	}
	dir, err := toolkit.UserConfigPath(rt.Env())
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, prefs.DefaultFile), nil
}
