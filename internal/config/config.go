package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	// Heartbeat monitoring settings.
	Heartbeat struct {
		CheckInterval  time.Duration `mapstructure:"check_interval"`
		StaleThreshold time.Duration `mapstructure:"stale_threshold"`
	} `mapstructure:"heartbeat"`

	// HTTP API settings.
	API struct {
		ListenAddress string `mapstructure:"listen_address"`
		Port          int    `mapstructure:"port"`
	} `mapstructure:"api"`

	// Optional etcd-backed persistence.
	Etcd struct {
		Enabled        bool          `mapstructure:"enabled"`
		Endpoints      []string      `mapstructure:"endpoints"`
		Username       string        `mapstructure:"username"`
		Password       string        `mapstructure:"password"`
		DialTimeout    time.Duration `mapstructure:"dial_timeout"`
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
		Prefix         string        `mapstructure:"prefix"`
		SnapshotTTL    time.Duration `mapstructure:"snapshot_ttl"`
	} `mapstructure:"etcd"`

	// Optional webhook notifier.
	Webhook struct {
		Enabled   bool   `mapstructure:"enabled"`
		URL       string `mapstructure:"url"`
		Username  string `mapstructure:"username"`
		AvatarURL string `mapstructure:"avatar_url"`
	} `mapstructure:"webhook"`

	// Logging settings.
	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

// LoadConfig loads configuration from a yaml file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.lanewatch")
		v.AddConfigPath("/etc/lanewatch")
	}

	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("LANEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults applies default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("heartbeat.check_interval", 30*time.Second)
	v.SetDefault("heartbeat.stale_threshold", 60*time.Second)

	v.SetDefault("api.listen_address", "0.0.0.0")
	v.SetDefault("api.port", 8080)

	v.SetDefault("etcd.enabled", false)
	v.SetDefault("etcd.endpoints", []string{"localhost:2379"})
	v.SetDefault("etcd.dial_timeout", 5*time.Second)
	v.SetDefault("etcd.request_timeout", 3*time.Second)
	v.SetDefault("etcd.prefix", "/lanewatch")
	// 0 keeps snapshots until overwritten; a positive value expires
	// snapshots of services that stop reporting.
	v.SetDefault("etcd.snapshot_ttl", time.Duration(0))

	v.SetDefault("webhook.enabled", false)
	v.SetDefault("webhook.username", "LaneWatch Heartbeat Monitor")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", true)
}

// validateConfig rejects values the monitor cannot run with.
func validateConfig(config *Config) error {
	if config.Heartbeat.CheckInterval <= 0 {
		return fmt.Errorf("heartbeat.check_interval must be positive, got %s", config.Heartbeat.CheckInterval)
	}
	if config.Heartbeat.StaleThreshold <= 0 {
		return fmt.Errorf("heartbeat.stale_threshold must be positive, got %s", config.Heartbeat.StaleThreshold)
	}
	if config.API.Port <= 0 || config.API.Port > 65535 {
		return fmt.Errorf("invalid api.port: %d", config.API.Port)
	}
	if config.Etcd.Enabled && len(config.Etcd.Endpoints) == 0 {
		return fmt.Errorf("etcd.enabled requires at least one endpoint")
	}
	if config.Etcd.SnapshotTTL < 0 {
		return fmt.Errorf("etcd.snapshot_ttl must not be negative, got %s", config.Etcd.SnapshotTTL)
	}
	if config.Webhook.Enabled && config.Webhook.URL == "" {
		return fmt.Errorf("webhook.enabled requires webhook.url")
	}
	return nil
}
