// Package config loads souschef settings from defaults, an optional YAML
// file, and SOUSCHEF_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the fully resolved settings record
type Config struct {
	MaxIterations int    `mapstructure:"max_iterations"`
	Recipient     string `mapstructure:"recipient"`
	LogLevel      string `mapstructure:"log_level"`

	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	EnableCORS bool   `mapstructure:"enable_cors"`
}

// MetricsConfig holds the metrics exporter settings
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port"`
}

// TracingConfig holds the trace exporter settings
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// Manager owns the viper instance behind one loaded configuration
type Manager struct {
	v      *viper.Viper
	config Config
}

// NewManager loads configuration from the default search paths
func NewManager() (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return NewManagerFromPath(filepath.Join(home, ".souschef"))
}

// NewManagerFromPath loads configuration with dir as the config search path
func NewManagerFromPath(dir string) (*Manager, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("SOUSCHEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, a malformed one is not
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	m := &Manager{v: v}
	if err := v.Unmarshal(&m.config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate(m.config); err != nil {
		return nil, err
	}
	return m, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_iterations", 50)
	v.SetDefault("recipient", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8420)
	v.SetDefault("server.enable_cors", true)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.prometheus_port", 9090)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
}

func validate(c Config) error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Metrics.Enabled && (c.Metrics.PrometheusPort <= 0 || c.Metrics.PrometheusPort > 65535) {
		return fmt.Errorf("metrics.prometheus_port out of range: %d", c.Metrics.PrometheusPort)
	}
	return nil
}

// Get returns the loaded configuration
func (m *Manager) Get() Config {
	return m.config
}

// Set overrides one key and re-resolves the configuration. Used by flag
// binding in the CLI; not persisted.
func (m *Manager) Set(key string, value any) error {
	m.v.Set(key, value)
	var updated Config
	if err := m.v.Unmarshal(&updated); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate(updated); err != nil {
		return err
	}
	m.config = updated
	return nil
}

// ConfigFileUsed reports which file the settings came from, if any
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}
