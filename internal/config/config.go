// Package config loads the per-run configuration file: where the submission
// lives, which ports the run uses, and which validations are graded.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/regrade/internal/errors"
	"github.com/felixgeelhaar/regrade/internal/suite"
)

// Config is the full run configuration. Loaded once per invocation and
// treated as immutable afterwards.
type Config struct {
	// ClientPath and ServerPath locate the submission executables.
	ClientPath string `yaml:"client_path"`
	ServerPath string `yaml:"server_path"`

	// ResultRoot is where captures, diffs, and the grade sheet land.
	ResultRoot string `yaml:"result_root"`

	// ServerPort is the port the submission's server binds.
	ServerPort int `yaml:"server_port"`

	// RelayPort is where the traffic relay listens; 0 picks a free port.
	RelayPort int `yaml:"relay_port"`

	// HealthPath is probed during the server readiness wait when the run
	// uses HTTP. Empty falls back to a plain TCP connect.
	HealthPath string `yaml:"health_path"`

	// ConfigTemplate, when set, is copied to ConfigDest during the
	// pre-run environment reset so every run starts from pristine
	// submission settings.
	ConfigTemplate string `yaml:"config_template"`
	ConfigDest     string `yaml:"config_dest"`

	Grading suite.GradingConfig `yaml:"grading"`
}

// DefaultConfig returns a configuration with every validation enabled and
// conventional paths.
func DefaultConfig() Config {
	return Config{
		ResultRoot: "results",
		ServerPort: 8080,
		Grading:    suite.DefaultGradingConfig(),
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.CodeFileReadFailed, fmt.Sprintf("failed to read config %s", path), err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.CodeFileReadFailed, "failed to parse config YAML", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks invariants the rest of the run relies on.
func (c Config) Validate() error {
	if c.ResultRoot == "" {
		return errors.New(errors.CodeSuiteInvalid, "result_root must not be empty")
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return errors.Newf(errors.CodeSuiteInvalid, "server_port %d out of range", c.ServerPort)
	}
	if c.RelayPort < 0 || c.RelayPort > 65535 {
		return errors.Newf(errors.CodeSuiteInvalid, "relay_port %d out of range", c.RelayPort)
	}
	if (c.ConfigTemplate == "") != (c.ConfigDest == "") {
		return errors.New(errors.CodeSuiteInvalid, "config_template and config_dest must be set together")
	}
	return nil
}

// ServerAddr returns the host:port the submission server is expected on.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("127.0.0.1:%d", c.ServerPort)
}

// RelayAddr returns the listen address for the traffic relay.
func (c Config) RelayAddr() string {
	return fmt.Sprintf("127.0.0.1:%d", c.RelayPort)
}
