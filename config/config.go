// Package config loads bastion settings from YAML files and BASTION_ environment
// variables and assembles the authenticator, authorizer and session stack they
// describe.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/shrinex/bastion/realm"
)

const (
	RealmMemory = "memory"
	RealmBearer = "bearer"

	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Config is the top-level bastion configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Strategy decides multi-realm outcomes: all, atleastone or first
	Strategy string `mapstructure:"strategy" validate:"omitempty,oneof=all allsuccessful atleastone atleastonesuccessful first firstsuccessful" yaml:"strategy"`

	// Realms are consulted in the listed order
	Realms []RealmConfig `mapstructure:"realms" validate:"required,min=1,dive" yaml:"realms"`

	Session SessionConfig `mapstructure:"session" yaml:"session"`

	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

type RealmConfig struct {
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	Type string `mapstructure:"type" validate:"required,oneof=memory bearer" yaml:"type"`

	// Accounts of a memory realm
	Accounts []realm.Account `mapstructure:"accounts" validate:"dive" yaml:"accounts,omitempty"`

	// Key is the HMAC secret of a bearer realm
	Key string `mapstructure:"key" validate:"required_if=Type bearer" yaml:"key,omitempty"`

	Issuer string `mapstructure:"issuer" yaml:"issuer,omitempty"`

	Audience string `mapstructure:"audience" yaml:"audience,omitempty"`

	Leeway time.Duration `mapstructure:"leeway" yaml:"leeway,omitempty"`
}

type SessionConfig struct {
	// Backend is memory or badger
	Backend string `mapstructure:"backend" validate:"required,oneof=memory badger" yaml:"backend"`

	// Dir holds the badger database, empty keeps badger in memory
	Dir string `mapstructure:"dir" yaml:"dir,omitempty"`

	// Codec encodes session attributes: json or yaml
	Codec string `mapstructure:"codec" validate:"required,oneof=json yaml" yaml:"codec"`

	// Timeout bounds a session's lifetime. Zero picks the default, a
	// negative value disables the bound.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// IdleTimeout bounds the gap between accesses, same rules as Timeout
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gte=0" yaml:"cleanup_interval"`

	// Concurrency caps live sessions per principal, 0 means unlimited
	Concurrency int `mapstructure:"concurrency" validate:"gte=0" yaml:"concurrency"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Load reads configPath, or config.yaml in the default config directory when empty.
// Environment variables prefixed with BASTION_ override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("no configuration file found, looked for %s", describePath(configPath))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the struct tags of cfg
func Validate(cfg *Config) error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
}

// Save writes cfg as YAML, creating the parent directory if needed
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("BASTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only sees keys viper already knows about
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"strategy",
		"session.backend", "session.dir", "session.codec",
		"session.timeout", "session.idle_timeout", "session.cleanup_interval",
		"session.concurrency",
		"metrics.enabled",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "bastion")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "bastion")
}

func describePath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	return GetDefaultConfigPath()
}
