// Package config loads series-fetcher settings from an optional YAML file,
// a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SERIES_FETCHER_OUTPUT_DIR.
const EnvPrefix = "SERIES_FETCHER"

// APIKeyEnv is the environment variable holding the GRID API key.
const APIKeyEnv = "GRID_API_KEY"

// ErrMissingAPIKey is returned by Validate when no API key is configured.
var ErrMissingAPIKey = errors.New("GRID API key is required (set " + APIKeyEnv + " or --api-key)")

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Output  OutputConfig  `mapstructure:"output"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Redis   RedisConfig   `mapstructure:"redis"`
	DDragon DDragonConfig `mapstructure:"ddragon"`
	Export  ExportConfig  `mapstructure:"export"`
	Storage StorageConfig `mapstructure:"storage"`
}

type APIConfig struct {
	URL       string        `mapstructure:"url"`
	Key       string        `mapstructure:"key"`
	RateLimit int           `mapstructure:"rate_limit"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

type FetchConfig struct {
	BatchSize int    `mapstructure:"batch_size"`
	IDColumn  string `mapstructure:"id_column"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// RedisConfig enables the Data Dragon response cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type DDragonConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type ExportConfig struct {
	Formats []string `mapstructure:"formats"`
}

// StorageConfig enables export uploads when Bucket is set.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"`
}

// Enabled reports whether an upload target is configured.
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// Load reads configuration. An empty configPath searches ./configs and the
// working directory for config.yaml; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unprefixed names for secrets
	v.BindEnv("api.key", APIKeyEnv)
	v.BindEnv("storage.access_key", "AWS_ACCESS_KEY_ID")
	v.BindEnv("storage.secret_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "https://api-op.grid.gg/live-data-feed/series-state/graphql")
	v.SetDefault("api.key", "")
	v.SetDefault("api.rate_limit", 20)
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("output.dir", "./outputs")
	v.SetDefault("fetch.batch_size", 50)
	v.SetDefault("fetch.id_column", "SeriesID")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "24h")
	v.SetDefault("ddragon.base_url", "https://ddragon.leagueoflegends.com")
	v.SetDefault("export.formats", []string{"csv"})
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.prefix", "lol-series")
}

// Validate checks the settings a fetch needs.
func (c *Config) Validate() error {
	if c.API.Key == "" {
		return ErrMissingAPIKey
	}
	if c.API.URL == "" {
		return errors.New("api url is required")
	}
	if c.API.RateLimit <= 0 {
		return fmt.Errorf("api.rate_limit must be > 0 (got %d)", c.API.RateLimit)
	}
	if c.Fetch.BatchSize <= 0 {
		return fmt.Errorf("fetch.batch_size must be > 0 (got %d)", c.Fetch.BatchSize)
	}
	return nil
}
