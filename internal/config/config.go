// Package config loads runtime settings from defaults, an optional YAML file
// and STUDIOFLOW_* environment variables.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/studioflow/pkg/observability"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. STUDIOFLOW_LOG_LEVEL.
const EnvPrefix = "STUDIOFLOW"

// LocalConfigFile is consulted when no --config flag is given.
var LocalConfigFile = filepath.Join(".studioflow", "config.yaml")

// Config is the resolved runtime configuration.
type Config struct {
	LogLevel       string        `mapstructure:"log_level"`
	EnergyPlusPath string        `mapstructure:"energyplus_path"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Debug          bool          `mapstructure:"debug"`
	// CommandsFile is a YAML/JSON file overriding EnergyPlus process arguments.
	CommandsFile string `mapstructure:"commands_file"`

	Store   StoreConfig                 `mapstructure:"store"`
	Tracing observability.TracingConfig `mapstructure:"tracing"`
	Server  ServerConfig                `mapstructure:"server"`

	// File is the config file that was read, empty when none was.
	File string `mapstructure:"-"`
}

// StoreConfig selects where run records are kept.
type StoreConfig struct {
	Backend       string        `mapstructure:"backend"`
	Path          string        `mapstructure:"path"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Prefix        string        `mapstructure:"prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
	// EncryptionKey is a 32-byte AES key, hex or base64 encoded.
	EncryptionKey string   `mapstructure:"encryption_key"`
	Redact        []string `mapstructure:"redact"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Store backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		Timeout:  0,
		Store: StoreConfig{
			Backend:   BackendFile,
			Path:      filepath.Join(".studioflow", "runs"),
			RedisAddr: "localhost:6379",
			Prefix:    "studioflow:run:",
		},
		Tracing: observability.TracingConfig{
			Exporter:    "stdout",
			ServiceName: "studioflow",
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("energyplus_path", d.EnergyPlusPath)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("commands_file", d.CommandsFile)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.redis_addr", d.Store.RedisAddr)
	v.SetDefault("store.redis_password", d.Store.RedisPassword)
	v.SetDefault("store.redis_db", d.Store.RedisDB)
	v.SetDefault("store.prefix", d.Store.Prefix)
	v.SetDefault("store.ttl", d.Store.TTL)
	v.SetDefault("store.encryption_key", d.Store.EncryptionKey)
	v.SetDefault("store.redact", d.Store.Redact)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("server.addr", d.Server.Addr)
}

// Load resolves the configuration into v. cfgFile, when set, must exist;
// otherwise LocalConfigFile is read if present.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
	default:
		if _, err := os.Stat(LocalConfigFile); err == nil {
			v.SetConfigFile(LocalConfigFile)
		}
	}

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be expressed as types.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("store.backend: unsupported backend %q", c.Store.Backend))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout: must not be negative, got %s", c.Timeout))
	}
	if c.Store.EncryptionKey != "" {
		if _, err := c.Store.Key(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Key decodes EncryptionKey. It returns nil when no key is configured.
func (s StoreConfig) Key() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	if k, err := hex.DecodeString(s.EncryptionKey); err == nil && len(k) == 32 {
		return k, nil
	}
	if k, err := base64.StdEncoding.DecodeString(s.EncryptionKey); err == nil && len(k) == 32 {
		return k, nil
	}
	return nil, errors.New("store.encryption_key: must be 32 bytes, hex or base64 encoded")
}
