// Package config loads the sentiscope YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SENTISCOPE_"

type Config struct {
	API     APIConfig     `yaml:"api"`
	Fetcher FetcherConfig `yaml:"fetcher"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

type FetcherConfig struct {
	CacheTime      time.Duration `yaml:"cache_time" validate:"gt=0"`
	Retries        int           `yaml:"retries" validate:"gte=0,lte=10"`
	RetryDelay     time.Duration `yaml:"retry_delay" validate:"gte=0"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" validate:"gte=0"`
	// RetryClientErrors retries 4xx responses too.
	RetryClientErrors bool `yaml:"retry_client_errors"`
	// ShareRequests lets concurrent identical reads wait on one upstream
	// request instead of superseding each other. Keep it on when serving
	// several users.
	ShareRequests bool `yaml:"share_requests"`
}

type CacheConfig struct {
	Backend  string         `yaml:"backend" validate:"oneof=memory redis bigcache"`
	Redis    RedisConfig    `yaml:"redis"`
	BigCache BigCacheConfig `yaml:"bigcache"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db" validate:"gte=0"`
	Namespace string `yaml:"namespace"`
}

type BigCacheConfig struct {
	MaxSizeMB  int           `yaml:"max_size_mb" validate:"gte=0"`
	LifeWindow time.Duration `yaml:"life_window" validate:"gte=0"`
}

type ServerConfig struct {
	Address         string        `yaml:"address" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
	// CORSOrigins lists the browser origins allowed to call the API;
	// empty allows any.
	CORSOrigins []string `yaml:"cors_origins"`
}

type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given. Load
// decodes the file over these values, so omitted keys keep them.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000/api",
			Timeout: 10 * time.Second,
		},
		Fetcher: FetcherConfig{
			CacheTime:     5 * time.Minute,
			Retries:       3,
			RetryDelay:    time.Second,
			ShareRequests: true,
		},
		Cache: CacheConfig{
			Backend:  "memory",
			Redis:    RedisConfig{Namespace: "sentiscope:"},
			BigCache: BigCacheConfig{MaxSizeMB: 64},
		},
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (if not empty) over the defaults, applies SENTISCOPE_*
// environment overrides and validates the result.
func Load(path string, logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := Default()
	if path != "" {
		logger.Info("loading configuration", zap.String("path", path))
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer func() { _ = file.Close() }()

		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode YAML config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"API_BASE_URL":   &c.API.BaseURL,
		"CACHE_BACKEND":  &c.Cache.Backend,
		"REDIS_ADDR":     &c.Cache.Redis.Addr,
		"REDIS_PASSWORD": &c.Cache.Redis.Password,
		"SERVER_ADDRESS": &c.Server.Address,
		"LOG_LEVEL":      &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"API_TIMEOUT":     &c.API.Timeout,
		"CACHE_TIME":      &c.Fetcher.CacheTime,
		"RETRY_DELAY":     &c.Fetcher.RetryDelay,
		"ATTEMPT_TIMEOUT": &c.Fetcher.AttemptTimeout,
	}
	for key, dst := range durations {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"RETRIES":  &c.Fetcher.Retries,
		"REDIS_DB": &c.Cache.Redis.DB,
	}
	for key, dst := range ints {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
		}
		*dst = n
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("invalid configuration: cache.redis.addr is required for the redis backend")
	}
	return nil
}

// NewLogger builds a zap logger for the configured level and mode.
func (l LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
