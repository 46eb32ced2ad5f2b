// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Store   StoreConfig   `mapstructure:"store"`
	Ingest  IngestConfig  `mapstructure:"ingest"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
}

// ServerConfig controls the read API server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// StoreConfig selects and configures the document store provider.
type StoreConfig struct {
	Provider string         `mapstructure:"provider"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
}

// PostgresConfig controls the Postgres connection pool.
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// MongoConfig controls the Mongo client.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// IngestConfig governs batching and the duplicate pre-check.
type IngestConfig struct {
	BatchSize int    `mapstructure:"batch_size"`
	DataDir   string `mapstructure:"data_dir"`
	Precheck  bool   `mapstructure:"precheck"`
}

// ScraperConfig governs the web page source.
type ScraperConfig struct {
	BaseURL        string   `mapstructure:"base_url"`
	Sections       []string `mapstructure:"sections"`
	AllowedDomains []string `mapstructure:"allowed_domains"`
	UserAgent      string   `mapstructure:"user_agent"`
	MaxPerSection  int      `mapstructure:"max_per_section"`
	Parallelism    int      `mapstructure:"parallelism"`
	DelaySeconds   int      `mapstructure:"delay_seconds"`
}

// PubSubConfig holds metadata for batch-completion notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BLOGINGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("logging.development", true)
	v.SetDefault("store.provider", "memory")
	v.SetDefault("store.postgres.table", "articles")
	v.SetDefault("store.mongo.database", "articles")
	v.SetDefault("store.mongo.collection", "articles")
	v.SetDefault("ingest.batch_size", 100)
	v.SetDefault("ingest.data_dir", "/data")
	v.SetDefault("ingest.precheck", false)
	v.SetDefault("scraper.user_agent", "blog-ingest/0.1")
	v.SetDefault("scraper.max_per_section", 5)
	v.SetDefault("scraper.parallelism", 2)
	v.SetDefault("scraper.delay_seconds", 1)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch_size must be > 0")
	}
	switch c.Store.Provider {
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn must be set when store.provider is postgres")
		}
	case "mongo":
		if c.Store.Mongo.URI == "" {
			return fmt.Errorf("store.mongo.uri must be set when store.provider is mongo")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store provider: %s", c.Store.Provider)
	}
	if c.Scraper.Parallelism <= 0 {
		return fmt.Errorf("scraper.parallelism must be > 0")
	}
	return nil
}

// ScrapeDelay converts the configured delay into a duration.
func (c Config) ScrapeDelay() time.Duration {
	return time.Duration(c.Scraper.DelaySeconds) * time.Second
}
