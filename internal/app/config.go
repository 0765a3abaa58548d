package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/routegen/common/go/logging"
	"github.com/yanet-platform/routegen/internal/transport"
	"github.com/yanet-platform/routegen/internal/vector"
	"github.com/yanet-platform/routegen/internal/workload"
)

// Config is the routegen configuration.
type Config struct {
	// Logging configuration.
	Logging *logging.Config `yaml:"logging"`
	// Workload is the shape of the generated workload.
	Workload workload.Config `yaml:"workload"`
	// Verify replays generated vectors before reporting success.
	Verify bool `yaml:"verify"`
	// Output describes the vector file.
	Output *vector.Config `yaml:"output"`
	// Push describes the test bench vectors are pushed to.
	Push *transport.Config `yaml:"push"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging:  logging.DefaultConfig(),
		Workload: workload.DefaultConfig(),
		Output:   vector.DefaultConfig(),
		Push:     transport.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a YAML file at the specified path.
//
// Fields missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	// Null sections fall back to their defaults.
	defaults := DefaultConfig()
	if cfg.Logging == nil {
		cfg.Logging = defaults.Logging
	}
	if cfg.Output == nil {
		cfg.Output = defaults.Output
	}
	if cfg.Push == nil {
		cfg.Push = defaults.Push
	}

	return cfg, nil
}

// Validate checks the configuration.
func (m *Config) Validate() error {
	if m.Logging == nil || m.Output == nil || m.Push == nil {
		return fmt.Errorf("logging, output and push sections are required")
	}
	if err := m.Workload.Validate(); err != nil {
		return fmt.Errorf("invalid workload: %w", err)
	}
	if _, err := vector.ParseFormat(m.Output.Format.String()); err != nil {
		return fmt.Errorf("invalid output: %w", err)
	}
	if m.Output.BufferSize == 0 {
		return fmt.Errorf("invalid output: buffer size must be positive")
	}

	return nil
}
