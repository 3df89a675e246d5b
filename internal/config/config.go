// Package config loads threadalert settings from a YAML file and
// THREADALERT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/threadalert/internal/harness"
)

const (
	defaultConfigName = ".threadalert"
	envPrefix         = "THREADALERT"
)

// Config holds user settings. Command-line flags override these.
type Config struct {
	// Harness defaults for run and test.
	Repeat            int           `mapstructure:"repeat"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Workers           int           `mapstructure:"workers"`
	CompleteExecution bool          `mapstructure:"complete_execution"`

	// Database is the run history path; empty disables recording.
	Database string `mapstructure:"database"`

	// Format is the output format, text or json.
	Format string `mapstructure:"format"`

	// NoColor disables coloured output.
	NoColor bool `mapstructure:"no_color"`

	// Parallel is how many scenarios the test command runs at once.
	Parallel int `mapstructure:"parallel"`

	// MetricsAddr, if set, serves Prometheus metrics during test runs.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		Repeat:            harness.DefaultRepeat,
		Timeout:           harness.DefaultTimeout,
		Workers:           harness.DefaultWorkers,
		CompleteExecution: true,
		Format:            "text",
		Parallel:          1,
	}
}

// Harness returns the harness configuration part of c.
func (c *Config) Harness() harness.Config {
	return harness.Config{
		Repeat:            c.Repeat,
		Timeout:           c.Timeout,
		Workers:           c.Workers,
		CompleteExecution: c.CompleteExecution,
	}
}

// Manager handles threadalert configuration.
type Manager struct {
	configPath string
	homeDir    string
	viper      *viper.Viper
}

// NewManager creates a configuration manager. An empty configPath looks
// for ~/.threadalert.yaml.
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		viper:      viper.New(),
	}
}

// Load reads the configuration. A missing default file is not an error;
// a missing explicit file is.
func (m *Manager) Load() (*Config, error) {
	m.setDefaults()

	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home := m.homeDir
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
		}
		m.viper.AddConfigPath(home)
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	m.viper.SetEnvPrefix(envPrefix)
	m.viper.AutomaticEnv()

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if m.configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := m.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFileUsed returns the path of the file that was read, if any.
func (m *Manager) ConfigFileUsed() string {
	return m.viper.ConfigFileUsed()
}

// setDefaults registers every key so environment variables bind on Unmarshal.
func (m *Manager) setDefaults() {
	d := Default()
	m.viper.SetDefault("repeat", d.Repeat)
	m.viper.SetDefault("timeout", d.Timeout)
	m.viper.SetDefault("workers", d.Workers)
	m.viper.SetDefault("complete_execution", d.CompleteExecution)
	m.viper.SetDefault("database", d.Database)
	m.viper.SetDefault("format", d.Format)
	m.viper.SetDefault("no_color", d.NoColor)
	m.viper.SetDefault("parallel", d.Parallel)
	m.viper.SetDefault("metrics_addr", d.MetricsAddr)
}

func validate(cfg *Config) error {
	if err := cfg.Harness().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Format != "text" && cfg.Format != "json" {
		return fmt.Errorf("invalid config: format must be text or json, got %q", cfg.Format)
	}
	if cfg.Parallel < 1 {
		return fmt.Errorf("invalid config: parallel must be positive, got %d", cfg.Parallel)
	}
	return nil
}
