package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const devSecret = "dev-secret-change"

type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	DatabaseDSN     string        `yaml:"database_dsn"`
	JWTSecret       string        `yaml:"jwt_secret"`
	AccessTTL       time.Duration `yaml:"access_ttl"`
	RefreshTTL      time.Duration `yaml:"refresh_ttl"`
	MaxRequestBytes int64         `yaml:"max_request_bytes"`
	LogLevel        string        `yaml:"log_level"`
}

func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		DatabaseDSN:     "file:notekeeper.db?cache=shared&mode=rwc",
		JWTSecret:       devSecret,
		AccessTTL:       15 * time.Minute,
		RefreshTTL:      7 * 24 * time.Hour,
		MaxRequestBytes: 1 << 20,
		LogLevel:        "info",
	}
}

// Load starts from Default, applies the YAML file named by
// NOTEKEEPER_SERVER_CONFIG if set, then environment overrides.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("NOTEKEEPER_SERVER_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	cfg.HTTPAddr = getEnv("NOTEKEEPER_HTTP_ADDR", cfg.HTTPAddr)
	cfg.DatabaseDSN = getEnv("NOTEKEEPER_DB_DSN", cfg.DatabaseDSN)
	cfg.JWTSecret = getEnv("NOTEKEEPER_JWT_SECRET", cfg.JWTSecret)
	cfg.LogLevel = getEnv("NOTEKEEPER_LOG_LEVEL", cfg.LogLevel)

	var err error
	if cfg.AccessTTL, err = getDuration("NOTEKEEPER_ACCESS_TTL", cfg.AccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = getDuration("NOTEKEEPER_REFRESH_TTL", cfg.RefreshTTL); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("NOTEKEEPER_MAX_REQUEST_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid NOTEKEEPER_MAX_REQUEST_BYTES: %w", err)
		}
		cfg.MaxRequestBytes = n
	}
	if cfg.JWTSecret == devSecret {
		log.Println("WARNING: using development JWT secret; set NOTEKEEPER_JWT_SECRET")
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
