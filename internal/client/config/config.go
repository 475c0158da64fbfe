// Package config resolves CLI settings from flags, NOTEKEEPER_* environment
// variables and an optional config.yaml in the config directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aviralrabbit1/nextNotes/internal/client/session"
)

const (
	EnvPrefix      = "NOTEKEEPER"
	FileName       = "config.yaml"
	DefaultServer  = "http://localhost:8080/api"
	DefaultTimeout = 30 * time.Second
)

type Config struct {
	Server     string        `mapstructure:"server"`
	ConfigDir  string        `mapstructure:"config_dir"`
	Timeout    time.Duration `mapstructure:"timeout"`
	LogLevel   string        `mapstructure:"log_level"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

// DefaultDir is the per-user directory holding the session, the vault key
// and config.yaml.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "notekeeper")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".notekeeper")
}

// flag name -> viper key
var flagKeys = map[string]string{
	"server":      "server",
	"config-dir":  "config_dir",
	"timeout":     "timeout",
	"log-level":   "log_level",
	"access-ttl":  "access_ttl",
	"refresh-ttl": "refresh_ttl",
}

func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("server", DefaultServer, "backend base URL")
	flags.String("config-dir", DefaultDir(), "directory for session, vault key and config.yaml")
	flags.Duration("timeout", DefaultTimeout, "HTTP request timeout")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Duration("access-ttl", session.DefaultAccessTTL, "local lifetime of the access token")
	flags.Duration("refresh-ttl", session.DefaultRefreshTTL, "local lifetime of the refresh token")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("server", DefaultServer)
	v.SetDefault("config_dir", DefaultDir())
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("log_level", "warn")
	v.SetDefault("access_ttl", session.DefaultAccessTTL)
	v.SetDefault("refresh_ttl", session.DefaultRefreshTTL)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads config.yaml from the resolved config directory when it exists
// and decodes the merged settings.
func Load(v *viper.Viper) (Config, error) {
	dir := v.GetString("config_dir")
	if dir != "" {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("stat %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Server == "" {
		return Config{}, errors.New("server URL must not be empty")
	}
	return cfg, nil
}
