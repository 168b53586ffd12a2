package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	TokenSecret    string   `mapstructure:"token_secret"`

	// Store selects the room document backend: "redis" or "buntdb".
	Store string `mapstructure:"store"`

	Redis   RedisConfig   `mapstructure:"redis"`
	BuntDB  BuntDBConfig  `mapstructure:"buntdb"`
	Profile ProfileConfig `mapstructure:"profile"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BuntDBConfig struct {
	Path string `mapstructure:"path"`
}

type ProfileConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("LIVEDRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("environment", "development")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("token_secret", "change-me-in-production")
	v.SetDefault("store", "redis")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("buntdb.path", "livedraft.db")
	v.SetDefault("profile.base_url", "https://bjapi.afreecatv.com/api")

	// Config file is optional, env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
