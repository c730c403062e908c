package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Storage struct {
	DbPath string `mapstructure:"db_path"`
}

type Cache struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

type Config struct {
	Server  Server  `mapstructure:"server"`
	Storage Storage `mapstructure:"storage"`
	Cache   Cache   `mapstructure:"cache"`
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// Load reads the engine configuration. Environment variables prefixed
// with LEDGER_ATLAS override file values; everything has a default so a
// missing file only fails when explicitly requested.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")
	v.SetDefault("storage.db_path", "ledger-atlas.db")
	v.SetDefault("cache.ttl_seconds", 3600)

	v.SetEnvPrefix("LEDGER_ATLAS")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
