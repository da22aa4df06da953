package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes the configured backend instances. Secrets can be pulled
// from the environment with ${VAR} or ${VAR:-default} placeholders.
type Config struct {
	Backends []BackendConfig `yaml:"backends"`
}

// BackendConfig is one backend instance: a unique name, the module to
// instantiate it from, and module-specific parameters.
type BackendConfig struct {
	Name   string            `yaml:"name"`
	Module string            `yaml:"module"`
	Params map[string]string `yaml:"params,omitempty"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := strings.TrimSuffix(strings.TrimPrefix(string(match), "${"), "}")

		// Support ${VAR:-default} syntax
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		if val, ok := os.LookupEnv(varName); ok {
			return []byte(val)
		}
		if hasDefault {
			return []byte(defaultVal)
		}
		return match
	})
}

// Load reads and parses the backend configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	for i, b := range cfg.Backends {
		if b.Name == "" || b.Module == "" {
			return nil, fmt.Errorf("backend entry %d: name and module are required", i)
		}
	}

	return &cfg, nil
}

// Backend returns the configured entry with the given instance name.
func (c *Config) Backend(name string) (BackendConfig, bool) {
	for _, b := range c.Backends {
		if b.Name == name {
			return b, true
		}
	}
	return BackendConfig{}, false
}
