// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ConfigFileName = "config.yaml"
	ConfigDirName  = "lakehouse"
	EnvPrefix      = "LAKEHOUSE"
)

type GCPConfig struct {
	Project     string `mapstructure:"project"`
	Region      string `mapstructure:"region"`
	Credentials string `mapstructure:"credentials"`
}

type AWSConfig struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}

type StateConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=local gcs s3"`
	Path    string `mapstructure:"path" validate:"required_if=Backend local"`
	Bucket  string `mapstructure:"bucket" validate:"required_unless=Backend local"`
	Prefix  string `mapstructure:"prefix"`
}

type ApplyConfig struct {
	Parallelism int `mapstructure:"parallelism" validate:"gte=1,lte=16"`
}

type Config struct {
	GCP   GCPConfig   `mapstructure:"gcp"`
	AWS   AWSConfig   `mapstructure:"aws"`
	State StateConfig `mapstructure:"state"`
	Apply ApplyConfig `mapstructure:"apply"`
}

// Every key accepted by 'config set', with its default
var defaults = map[string]interface{}{
	"gcp.project":       "",
	"gcp.region":        "",
	"gcp.credentials":   "",
	"aws.region":        "",
	"aws.endpoint":      "",
	"state.backend":     "local",
	"state.path":        "lakehouse.state.yaml",
	"state.bucket":      "",
	"state.prefix":      "",
	"apply.parallelism": 4,
}

// SupportedKeys returns the sorted list of configuration keys
func SupportedKeys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConfigManager reads and writes the user configuration file and layers
// environment overrides (LAKEHOUSE_GCP_PROJECT, ...) on top of it
type ConfigManager struct {
	path string
	file *viper.Viper
}

func NewConfigManager() (*ConfigManager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewConfigManagerAt(configPath)
}

// NewConfigManagerAt uses an explicit config file path; the file does not need to exist yet
func NewConfigManagerAt(configPath string) (*ConfigManager, error) {
	m := &ConfigManager{path: configPath}
	if err := m.reload(); err != nil {
		return nil, err
	}
	return m, nil
}

func getConfigPath() (string, error) {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error getting user config directory: %w", err)
	}

	return filepath.Join(configDir, ConfigDirName, ConfigFileName), nil
}

func (m *ConfigManager) Path() string {
	return m.path
}

func (m *ConfigManager) reload() error {
	v := viper.New()
	v.SetConfigFile(m.path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	m.file = v
	return nil
}

func (m *ConfigManager) effective() (*viper.Viper, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.MergeConfigMap(m.file.AllSettings()); err != nil {
		return nil, fmt.Errorf("error merging config file: %w", err)
	}
	return v, nil
}

// LoadConfig returns the merged configuration (defaults < file < environment).
// It does not validate; commands that depend on the values call Validate.
func (m *ConfigManager) LoadConfig() (*Config, error) {
	v, err := m.effective()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing configuration from %s or %s_* environment variables: %w", m.path, EnvPrefix, err)
	}

	return &cfg, nil
}

// Validate checks the merged configuration; the error names the offending keys
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration (fix it with 'lakehouse config set'): %w", err)
	}
	return nil
}

func (m *ConfigManager) SetValue(key, value string) error {
	key = strings.ToLower(key)
	if _, ok := defaults[key]; !ok {
		return fmt.Errorf("unknown config key: %s. Supported keys: %s", key, strings.Join(SupportedKeys(), ", "))
	}

	var typed interface{} = value
	if _, isInt := defaults[key].(int); isInt {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config key %s expects an integer, got %q", key, value)
		}
		typed = n
	}

	m.file.Set(key, typed)
	return m.write(m.file.AllSettings())
}

// GetValue returns the effective value of a key and whether the key is known
func (m *ConfigManager) GetValue(key string) (string, bool) {
	key = strings.ToLower(key)
	if _, ok := defaults[key]; !ok {
		return "", false
	}

	v, err := m.effective()
	if err != nil {
		return "", false
	}
	return v.GetString(key), true
}

func (m *ConfigManager) DeleteValue(key string) (bool, error) {
	key = strings.ToLower(key)
	if !m.file.IsSet(key) {
		return false, nil
	}

	settings := m.file.AllSettings()
	if !deleteNested(settings, strings.Split(key, ".")) {
		return false, nil
	}

	if err := m.write(settings); err != nil {
		return false, err
	}
	return true, m.reload()
}

// GetAllSettings returns only the values stored in the config file
func (m *ConfigManager) GetAllSettings() map[string]interface{} {
	return m.file.AllSettings()
}

func (m *ConfigManager) write(settings map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	out := viper.New()
	out.SetConfigType("yaml")
	if err := out.MergeConfigMap(settings); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	if err := out.WriteConfigAs(m.path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	m.file = out
	return nil
}

func deleteNested(settings map[string]interface{}, path []string) bool {
	if len(path) == 1 {
		if _, ok := settings[path[0]]; !ok {
			return false
		}
		delete(settings, path[0])
		return true
	}

	child, ok := settings[path[0]].(map[string]interface{})
	if !ok {
		return false
	}
	if !deleteNested(child, path[1:]) {
		return false
	}
	if len(child) == 0 {
		delete(settings, path[0])
	}
	return true
}

// ProviderSettings is everything a provider needs to build an authenticated client
type ProviderSettings struct {
	Name    string
	Project string
	Region  string
	// Path to a credentials file; empty means application default credentials
	CredentialsFile string
}
