package config

import (
	"strings"
	"time"
)

// ApplyDefaults fills zero values, explicit settings are kept.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applySessionDefaults(&cfg.Session)

	if cfg.Strategy == "" {
		cfg.Strategy = "all"
	}
	cfg.Strategy = strings.ToLower(cfg.Strategy)

	for i := range cfg.Realms {
		cfg.Realms[i].Type = strings.ToLower(cfg.Realms[i].Type)
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}

	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.Backend == "" {
		cfg.Backend = BackendMemory
	}

	if cfg.Codec == "" {
		cfg.Codec = "json"
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 12 * time.Hour
	}

	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = time.Hour
	}

	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Minute
	}
}

// GetDefaultConfig returns a configuration with a single empty memory realm
func GetDefaultConfig() *Config {
	cfg := &Config{
		Realms: []RealmConfig{
			{Name: "memory", Type: RealmMemory},
		},
	}
	ApplyDefaults(cfg)
	cfg.Session.Concurrency = 1
	return cfg
}
