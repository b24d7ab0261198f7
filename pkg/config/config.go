// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Index, Analysis, Search, Redis, Postgres, Kafka, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends understood by the Directory factory.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the top-level application configuration.
type Config struct {
	Index    IndexConfig    `yaml:"index"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Search   SearchConfig   `yaml:"search"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// IndexConfig selects where and how the index is persisted.
type IndexConfig struct {
	Path          string        `yaml:"path"`
	Backend       string        `yaml:"backend"`
	FlushInterval time.Duration `yaml:"flushInterval"`
	FlushEvery    int           `yaml:"flushEvery"`
	// ConnectAttempts bounds how often a remote backend is dialled at startup.
	ConnectAttempts int `yaml:"connectAttempts"`
}

// AnalysisConfig controls the tokenizer and the filter stages applied to
// every indexed field.
type AnalysisConfig struct {
	Tokenizer    string   `yaml:"tokenizer"`
	Lowercase    bool     `yaml:"lowercase"`
	Alphanumeric bool     `yaml:"alphanumeric"`
	Stopword     bool     `yaml:"stopword"`
	Length       bool     `yaml:"length"`
	Symbol       bool     `yaml:"symbol"`
	Stem         bool     `yaml:"stem"`
	MinLength    int      `yaml:"minLength"`
	MaxLength    int      `yaml:"maxLength"`
	Stopwords    []string `yaml:"stopwords"`
}

// SearchConfig controls the HTTP query service and the defaults of the
// command-line search.
type SearchConfig struct {
	Port           int           `yaml:"port"`
	DefaultField   string        `yaml:"defaultField"`
	TitleField     string        `yaml:"titleField"`
	DefaultLimit   int           `yaml:"defaultLimit"`
	MaxResults     int           `yaml:"maxResults"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// RedisConfig holds Redis connection parameters for the key-value backend.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	PoolSize  int    `yaml:"poolSize"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds the broker list and the document topic consumed by the
// indexer service.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	ConsumerGroup string   `yaml:"consumerGroup"`
	DocumentTopic string   `yaml:"documentTopic"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Path:            "index",
			Backend:         BackendFile,
			FlushInterval:   30 * time.Second,
			FlushEvery:      1000,
			ConnectAttempts: 5,
		},
		Analysis: DefaultAnalysis(),
		Search: SearchConfig{
			Port:           8080,
			DefaultField:   "body",
			TitleField:     "title",
			DefaultLimit:   10,
			MaxResults:     100,
			RequestTimeout: 5 * time.Second,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  10,
			KeyPrefix: "invindex",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "invindex",
			User:            "invindex",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "invindex-indexer",
			DocumentTopic: "documents",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// DefaultAnalysis enables lowercase, alphanumeric, stopword and length
// (3..50) filtering on top of the whitespace tokenizer.
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		Tokenizer:    "whitespace",
		Lowercase:    true,
		Alphanumeric: true,
		Stopword:     true,
		Length:       true,
		MinLength:    3,
		MaxLength:    50,
	}
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	switch c.Index.Backend {
	case BackendFile, BackendMemory, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unknown index backend %q", c.Index.Backend)
	}
	if c.Index.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive, got %s", c.Index.FlushInterval)
	}
	if c.Analysis.Length {
		if c.Analysis.MinLength < 0 || c.Analysis.MaxLength < c.Analysis.MinLength {
			return fmt.Errorf("invalid length filter bounds %d..%d", c.Analysis.MinLength, c.Analysis.MaxLength)
		}
	}
	if c.Search.DefaultLimit < 1 || c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("invalid search limits: default %d, max %d", c.Search.DefaultLimit, c.Search.MaxResults)
	}
	return nil
}

// applyEnvOverrides reads INVX_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INVX_INDEX_PATH"); v != "" {
		cfg.Index.Path = v
	}
	if v := os.Getenv("INVX_INDEX_BACKEND"); v != "" {
		cfg.Index.Backend = v
	}
	if v := os.Getenv("INVX_ANALYSIS_TOKENIZER"); v != "" {
		cfg.Analysis.Tokenizer = v
	}
	if v := os.Getenv("INVX_ANALYSIS_STOPWORD"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Analysis.Stopword = b
		}
	}
	if v := os.Getenv("INVX_ANALYSIS_SYMBOL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Analysis.Symbol = b
		}
	}
	if v := os.Getenv("INVX_SEARCH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Search.Port = port
		}
	}
	if v := os.Getenv("INVX_SEARCH_DEFAULT_FIELD"); v != "" {
		cfg.Search.DefaultField = v
	}
	if v := os.Getenv("INVX_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("INVX_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("INVX_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("INVX_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("INVX_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("INVX_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("INVX_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("INVX_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("INVX_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("INVX_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("INVX_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
