package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr          string
	MySQLDSN          string
	RedisAddr         string
	GeminiAPIKey      string
	GeminiModel       string
	CompletionTimeout time.Duration
	LogLevel          string
}

// fileConfig mirrors Config for YAML decoding; durations arrive as
// strings like "60s".
type fileConfig struct {
	HTTPAddr          string `yaml:"http_addr"`
	MySQLDSN          string `yaml:"mysql_dsn"`
	RedisAddr         string `yaml:"redis_addr"`
	GeminiAPIKey      string `yaml:"gemini_api_key"`
	GeminiModel       string `yaml:"gemini_model"`
	CompletionTimeout string `yaml:"completion_timeout"`
	LogLevel          string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		HTTPAddr:          ":8080",
		MySQLDSN:          "root:root@tcp(localhost:3306)/satchel?parseTime=true",
		RedisAddr:         "localhost:6379",
		GeminiModel:       "gemini-2.5-flash",
		CompletionTimeout: 60 * time.Second,
		LogLevel:          "info",
	}
}

// Load reads the YAML file at path (skipped when path is empty or the
// file does not exist) and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			var file fileConfig
			if err := yaml.Unmarshal(data, &file); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
			if err := cfg.apply(file); err != nil {
				return cfg, err
			}
		}
	}

	overrideString(&cfg.HTTPAddr, "SATCHEL_HTTP_ADDR")
	overrideString(&cfg.MySQLDSN, "SATCHEL_MYSQL_DSN")
	overrideString(&cfg.RedisAddr, "SATCHEL_REDIS_ADDR")
	overrideString(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	overrideString(&cfg.GeminiModel, "SATCHEL_GEMINI_MODEL")
	overrideString(&cfg.LogLevel, "SATCHEL_LOG_LEVEL")

	if v := os.Getenv("SATCHEL_COMPLETION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("parse SATCHEL_COMPLETION_TIMEOUT: %w", err)
		}
		cfg.CompletionTimeout = d
	}

	return cfg, nil
}

func (c *Config) apply(file fileConfig) error {
	if file.HTTPAddr != "" {
		c.HTTPAddr = file.HTTPAddr
	}
	if file.MySQLDSN != "" {
		c.MySQLDSN = file.MySQLDSN
	}
	if file.RedisAddr != "" {
		c.RedisAddr = file.RedisAddr
	}
	if file.GeminiAPIKey != "" {
		c.GeminiAPIKey = file.GeminiAPIKey
	}
	if file.GeminiModel != "" {
		c.GeminiModel = file.GeminiModel
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if file.CompletionTimeout != "" {
		d, err := time.ParseDuration(file.CompletionTimeout)
		if err != nil {
			return fmt.Errorf("parse completion_timeout: %w", err)
		}
		c.CompletionTimeout = d
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
