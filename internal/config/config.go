package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	Host             string        `mapstructure:"HOST"`
	Port             int           `mapstructure:"PORT"`
	DBURL            string        `mapstructure:"DB_URL"`
	GithubToken      string        `mapstructure:"GITHUB_TOKEN"`
	GithubCACert     string        `mapstructure:"GITHUB_CA_CERT"`
	SyncInterval     time.Duration `mapstructure:"SYNC_INTERVAL"`
	SyncInitialDelay time.Duration `mapstructure:"SYNC_INITIAL_DELAY"`
}

// LoadConfig reads configuration from a .env file and/or environment
// variables. DB_URL and GITHUB_TOKEN are mandatory; everything else has a
// default.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HOST", "127.0.0.1")
	v.SetDefault("PORT", 3000)
	v.SetDefault("GITHUB_CA_CERT", "")
	// Metrics reconcile every two weeks by default.
	v.SetDefault("SYNC_INTERVAL", "336h")
	v.SetDefault("SYNC_INITIAL_DELAY", "0s")

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface env-only keys through Unmarshal;
	// BindEnv registers each key explicitly.
	for _, key := range []string{
		"LOG_LEVEL", "HOST", "PORT", "DB_URL", "GITHUB_TOKEN",
		"GITHUB_CA_CERT", "SYNC_INTERVAL", "SYNC_INITIAL_DELAY",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.GithubToken == "" {
		return nil, errors.New("GITHUB_TOKEN is a required configuration field")
	}
	if cfg.SyncInterval <= 0 {
		return nil, errors.New("SYNC_INTERVAL must be a positive duration")
	}
	if cfg.SyncInitialDelay < 0 {
		return nil, errors.New("SYNC_INITIAL_DELAY must not be negative")
	}

	return &cfg, nil
}
