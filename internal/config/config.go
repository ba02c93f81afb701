package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	BrickLink   BrickLinkConfig   `mapstructure:"bricklink"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Acquisition AcquisitionConfig `mapstructure:"acquisition"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
}

// BrickLinkConfig holds catalog site access configuration
type BrickLinkConfig struct {
	BaseURL              string   `mapstructure:"base_url"`
	Timeout              int      `mapstructure:"timeout"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	Proxies              []string `mapstructure:"proxies"`
}

// CacheConfig holds the image fetch cache settings
type CacheConfig struct {
	Dir                  string `mapstructure:"dir"`
	MemoryEntries        int    `mapstructure:"memory_entries"`
	MaxConcurrentFetches int    `mapstructure:"max_concurrent_fetches"`
	FetchTimeout         int    `mapstructure:"fetch_timeout"`
}

// AcquisitionConfig holds the batch acquisition settings
type AcquisitionConfig struct {
	Sets       []string `mapstructure:"sets"`
	MaxWorkers int      `mapstructure:"max_workers"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config.yaml file not found in current directory")
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("bricklink.base_url", "https://www.bricklink.com")
	viper.SetDefault("bricklink.timeout", 30)
	viper.SetDefault("bricklink.max_requests_per_second", 2)

	viper.SetDefault("cache.dir", "./cache")
	viper.SetDefault("cache.memory_entries", 100)
	viper.SetDefault("cache.max_concurrent_fetches", 4)
	viper.SetDefault("cache.fetch_timeout", 30)

	viper.SetDefault("acquisition.max_workers", 4)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "inventory")
	viper.SetDefault("database.user", "inventory_user")
	viper.SetDefault("database.password", "inventory_pass")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.consumer_group", "inventory_consumer")
	viper.SetDefault("redis.min_idle_time", 120)
}
