// Package config loads the YAML file configuration of the purgecache command.
package config

import (
	"os"
	"slices"

	"github.com/hyp3rd/ewrap"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/hyp3rd/purgecache/internal/constants"
	"github.com/hyp3rd/purgecache/internal/sentinel"
	redisstore "github.com/hyp3rd/purgecache/pkg/backend/redis"
)

// Config represents the command configuration.
type Config struct {
	Cache      CacheConfig      `yaml:"cache"`
	Backend    BackendConfig    `yaml:"backend"`
	Management ManagementConfig `yaml:"management"`
	Log        LogConfig        `yaml:"log"`
}

// CacheConfig contains the engine configuration.
type CacheConfig struct {
	MaxSize    int     `yaml:"max_size"`
	FillFactor float64 `yaml:"fill_factor"`
	Debug      bool    `yaml:"debug"`
}

// BackendConfig selects and configures the storage backend.
type BackendConfig struct {
	Type     string      `yaml:"type"` // "in-memory" or "redis"
	Capacity int         `yaml:"capacity"`
	Redis    RedisConfig `yaml:"redis"`
}

// RedisConfig contains the redis connection and record settings.
type RedisConfig struct {
	Addrs       []string `yaml:"addrs"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	DB          int      `yaml:"db"`
	KeysSetName string   `yaml:"keys_set_name"`
	Serializer  string   `yaml:"serializer"`
}

// ManagementConfig contains the management HTTP settings. An empty address disables it.
type ManagementConfig struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

// LogConfig contains the logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the configuration used for every omitted setting.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{FillFactor: constants.DefaultFillFactor},
		Backend: BackendConfig{
			Type: constants.InMemoryBackend,
			Redis: RedisConfig{
				KeysSetName: constants.DefaultKeysSetName,
				Serializer:  constants.DefaultSerializer,
			},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads and parses the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ewrap.Wrap(err, "reading config file")
	}

	return Parse(data)
}

// Parse parses a YAML document over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	err := yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, ewrap.Wrap(err, "parsing config YAML")
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Cache.FillFactor <= 0 || c.Cache.FillFactor > 1 {
		return ewrap.Wrapf(sentinel.ErrInvalidConfig, "cache.fill_factor must be in (0, 1], got %v", c.Cache.FillFactor)
	}

	if c.Backend.Capacity < 0 {
		return ewrap.Wrapf(sentinel.ErrInvalidConfig, "backend.capacity cannot be negative, got %d", c.Backend.Capacity)
	}

	switch c.Backend.Type {
	case constants.InMemoryBackend:
	case constants.RedisBackend:
		if len(c.Backend.Redis.Addrs) == 0 {
			return ewrap.Wrap(sentinel.ErrInvalidConfig, "backend.redis.addrs is required")
		}

		if !slices.Contains([]string{"msgpack", "json"}, c.Backend.Redis.Serializer) {
			return ewrap.Wrapf(sentinel.ErrInvalidConfig, "unknown backend.redis.serializer %q", c.Backend.Redis.Serializer)
		}
	default:
		return ewrap.Wrapf(sentinel.ErrInvalidConfig, "unknown backend.type %q", c.Backend.Type)
	}

	_, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return ewrap.Wrap(sentinel.ErrInvalidConfig, err.Error())
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		return ewrap.Wrapf(sentinel.ErrInvalidConfig, "log.format must be 'text' or 'json', got %q", c.Log.Format)
	}

	return nil
}

// Logger builds the logger described by the log settings.
func (c *Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, ewrap.Wrap(sentinel.ErrInvalidConfig, err.Error())
	}

	logger := logrus.New()
	logger.SetLevel(level)

	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	// the engine traces at debug level
	if c.Cache.Debug && level < logrus.DebugLevel {
		logger.SetLevel(logrus.DebugLevel)
	}

	return logger, nil
}

// RedisOptions returns the redis client options of the backend settings.
func (c *Config) RedisOptions() []redisstore.Option {
	r := c.Backend.Redis

	return []redisstore.Option{
		redisstore.WithAddrs(r.Addrs...),
		redisstore.WithUsername(r.Username),
		redisstore.WithPassword(r.Password),
		redisstore.WithDB(r.DB),
	}
}
