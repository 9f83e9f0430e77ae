package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultConfigDir  = ".codeguardian"
	DefaultConfigFile = "config.json"
	DefaultDBFile     = ".codeguardian/codeguardian.db"
)

// Load reads the config file and returns a populated Config. Missing files are
// not an error: defaults apply and environment variables may override any key
// (e.g. DATABASE_DRIVER, AI_PROVIDER).
func Load(configPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(home, DefaultConfigDir))
	}

	setDefaults(v, home)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Database.Path = expandHome(cfg.Database.Path, home)
	cfg.Scanner.PolicyPath = expandHome(cfg.Scanner.PolicyPath, home)
	return &cfg, nil
}

// Save writes the config to disk as JSON.
func Save(cfg *Config, configPath string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}

	if configPath == "" {
		configPath = filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("serialising config: %w", err)
	}

	return os.WriteFile(configPath, data, 0o600)
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", filepath.Join(home, DefaultDBFile))
	v.SetDefault("database.dsn", "")

	v.SetDefault("ai.provider", "bedrock")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.region", "us-east-1")
	v.SetDefault("ai.max_tokens", 4000)
	v.SetDefault("ai.temperature", 0.1)

	v.SetDefault("scanner.max_concurrent_scans", 3)
	v.SetDefault("scanner.batch_size", 5)
	v.SetDefault("scanner.batch_pause_ms", 1000)
	v.SetDefault("scanner.scan_timeout_min", 30)
	v.SetDefault("scanner.rescan_interval_hours", 24)
	v.SetDefault("scanner.rescan_cron", "@every 1h")

	v.SetDefault("gateway.port", 8080)
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
