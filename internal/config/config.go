// Package config loads runtime settings from defaults, an optional
// inventar.yaml, an optional .env file and INVENTAR_* environment variables,
// in increasing order of precedence. Command-line flags bound by the CLI take
// precedence over all of them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configFileName = "inventar"
	configFileType = "yaml"
	envPrefix      = "INVENTAR"
)

// Config keys.
const (
	KeyDBPath             = "db.path"
	KeyHTTPAddr           = "http.addr"
	KeyLogLevel           = "log.level"
	KeyLogFile            = "log.file"
	KeyCacheTTL           = "cache.ttl"
	KeyCacheSweepInterval = "cache.sweep_interval"
	KeyAuditInterval      = "audit.interval"
	KeyStoreOpTimeout     = "store.op_timeout"
	KeyNATSURL            = "nats.url"
	KeyNATSSubject        = "nats.subject"
	KeyOTelEndpoint       = "otel.endpoint"
	KeyMetricsEnabled     = "metrics.enabled"
	KeyAuthSecret         = "auth.secret"
)

// Config is the resolved runtime configuration.
type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Store   StoreConfig   `mapstructure:"store"`
	NATS    NATSConfig    `mapstructure:"nats"`
	OTel    OTelConfig    `mapstructure:"otel"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// AuditConfig controls the periodic invariant audit. A zero interval
// disables it.
type AuditConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type StoreConfig struct {
	OpTimeout time.Duration `mapstructure:"op_timeout"`
}

// NATSConfig enables cross-replica cache invalidation when URL is set.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// OTelConfig enables trace export when Endpoint is set.
type OTelConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AuthConfig holds the JWT signing secret. When empty, the secret stored in
// the database is used.
type AuthConfig struct {
	Secret string `mapstructure:"secret"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDBPath, "inventar.sqlite3")
	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyCacheTTL, 30*time.Second)
	v.SetDefault(KeyCacheSweepInterval, time.Minute)
	v.SetDefault(KeyAuditInterval, 15*time.Minute)
	v.SetDefault(KeyStoreOpTimeout, 10*time.Second)
	v.SetDefault(KeyNATSURL, "")
	v.SetDefault(KeyNATSSubject, "inventar.cache.invalidate")
	v.SetDefault(KeyOTelEndpoint, "")
	v.SetDefault(KeyMetricsEnabled, true)
	v.SetDefault(KeyAuthSecret, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the .env file at envFile (if present), then the config file. An
// explicit configFile must exist; otherwise inventar.yaml is looked up in the
// working directory and a missing file is not an error.
func Load(v *viper.Viper, configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("config: %s must not be empty", KeyDBPath)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("config: %s must be positive", KeyCacheTTL)
	}
	if c.Store.OpTimeout <= 0 {
		return fmt.Errorf("config: %s must be positive", KeyStoreOpTimeout)
	}
	if c.Cache.SweepInterval < 0 || c.Audit.Interval < 0 {
		return fmt.Errorf("config: intervals must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
