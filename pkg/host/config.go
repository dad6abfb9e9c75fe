package host

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the host looks for its configuration when the
// caller does not name a file.
const DefaultConfigPath = "overture.yaml"

// Config is the top-level host configuration.
type Config struct {
	Path      string          `yaml:"-"` // Set by LoadConfig, not from YAML.
	EnvFiles  []string        `yaml:"env_files"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Disabled  []string        `yaml:"disabled"`
}

// LogConfig controls the host logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default info)
	Format string `yaml:"format"` // text or json (default text)
}

// AdminConfig controls the admin controller.
type AdminConfig struct {
	Addr string `yaml:"addr"` // listen address (default :9190)
}

// TelemetryConfig controls the telemetry controller.
type TelemetryConfig struct {
	Namespace string `yaml:"namespace"` // metric namespace (default overture)
}

// LoadConfig reads a YAML file and returns a Config. Environment variables
// referenced as ${VAR} or $VAR in the YAML are expanded before parsing, so
// secrets can live in the environment (e.g. loaded from a .env file) rather
// than committed in the config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("host: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("host: parse config: %w", err)
	}

	cfg.Path = path

	return cfg, nil
}

// Validate checks that the configuration is internally consistent. Disabled
// names are checked against the assembled controller set in New, since
// applications register controllers the config file cannot know about.
func (c Config) Validate() error {
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("host: config: unknown log level %q", c.Log.Level)
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("host: config: unknown log format %q", c.Log.Format)
	}

	for _, f := range c.EnvFiles {
		if f == "" {
			return fmt.Errorf("host: config: env file path is empty")
		}
	}

	seen := make(map[string]struct{}, len(c.Disabled))
	for _, name := range c.Disabled {
		if name == "" {
			return fmt.Errorf("host: config: disabled controller name is empty")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("host: config: duplicate disabled controller %q", name)
		}
		seen[name] = struct{}{}
	}

	return nil
}
