package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName         string `mapstructure:"app_name"`
	Env             string `mapstructure:"app_env"`
	LogLevel        string `mapstructure:"log_level"`
	OutputFile      string `mapstructure:"output_file"`
	DiagnosticsFile string `mapstructure:"diagnostics_file"`
	ProfilesFile    string `mapstructure:"profiles_file"`
	Profile         string `mapstructure:"profile"`
	PublishersFile  string `mapstructure:"publishers_file"`

	PublishTimeoutSeconds int64         `mapstructure:"publish_timeout_seconds"`
	PublishTimeout        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "brokennews-extractor")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("output_file", "clean-news.json")
	v.SetDefault("diagnostics_file", "log.txt")
	v.SetDefault("profiles_file", "")
	v.SetDefault("profile", "brokennews")
	v.SetDefault("publishers_file", "")
	v.SetDefault("publish_timeout_seconds", 30)
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/runs.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) validate() error {
	if strings.TrimSpace(cfg.OutputFile) == "" {
		return fmt.Errorf("invalid output_file (must not be empty)")
	}
	if strings.TrimSpace(cfg.DiagnosticsFile) == "" {
		return fmt.Errorf("invalid diagnostics_file (must not be empty)")
	}
	if cfg.PublishTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid publish_timeout_seconds (must be positive seconds)")
	}
	cfg.PublishTimeout = time.Duration(cfg.PublishTimeoutSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}
