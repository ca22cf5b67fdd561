// Package config loads and validates the evaluator configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Corpus, Indexer, Search, Redis, Postgres, Kafka, etc.).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Corpus   CorpusConfig   `yaml:"corpus"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Search   SearchConfig   `yaml:"search"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// CorpusConfig locates the document collection and the analyzer inputs.
type CorpusConfig struct {
	DocsDir       string `yaml:"docsDir" envconfig:"SE_CORPUS_DOCS_DIR"`
	StopWordsFile string `yaml:"stopWordsFile" envconfig:"SE_CORPUS_STOPWORDS_FILE"`
	QueryFile     string `yaml:"queryFile" envconfig:"SE_CORPUS_QUERY_FILE"`
	JudgmentFile  string `yaml:"judgmentFile" envconfig:"SE_CORPUS_JUDGMENT_FILE"`
}

// IndexerConfig controls where the index lives and how it is persisted.
type IndexerConfig struct {
	DataDir  string `yaml:"dataDir" envconfig:"SE_INDEXER_DATA_DIR"`
	FileName string `yaml:"fileName" envconfig:"SE_INDEXER_FILE_NAME"`
	Format   string `yaml:"format" envconfig:"SE_INDEXER_FORMAT"`
	Rebuild  bool   `yaml:"rebuild" envconfig:"SE_INDEXER_REBUILD"`
}

// SearchConfig controls weighting, result limits, and query parallelism.
type SearchConfig struct {
	Weighting string `yaml:"weighting" envconfig:"SE_SEARCH_WEIGHTING"`
	Limit     int    `yaml:"limit" envconfig:"SE_SEARCH_LIMIT"`
	Workers   int    `yaml:"workers" envconfig:"SE_SEARCH_WORKERS"`
}

// RedisConfig holds the ranking cache connection. The cache is only used
// when Enabled is set.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" envconfig:"SE_REDIS_ENABLED"`
	Addr     string        `yaml:"addr" envconfig:"SE_REDIS_ADDR"`
	Password string        `yaml:"password" envconfig:"SE_REDIS_PASSWORD"`
	DB       int           `yaml:"db" envconfig:"SE_REDIS_DB"`
	PoolSize int           `yaml:"poolSize" envconfig:"SE_REDIS_POOL_SIZE"`
	CacheTTL time.Duration `yaml:"cacheTTL" envconfig:"SE_REDIS_CACHE_TTL"`
}

// PostgresConfig holds PostgreSQL connection parameters for the run store.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled" envconfig:"SE_POSTGRES_ENABLED"`
	Host            string        `yaml:"host" envconfig:"SE_POSTGRES_HOST"`
	Port            int           `yaml:"port" envconfig:"SE_POSTGRES_PORT"`
	Database        string        `yaml:"database" envconfig:"SE_POSTGRES_DATABASE"`
	User            string        `yaml:"user" envconfig:"SE_POSTGRES_USER"`
	Password        string        `yaml:"password" envconfig:"SE_POSTGRES_PASSWORD"`
	SSLMode         string        `yaml:"sslMode" envconfig:"SE_POSTGRES_SSLMODE"`
	MaxOpenConns    int           `yaml:"maxOpenConns" envconfig:"SE_POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"maxIdleConns" envconfig:"SE_POSTGRES_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" envconfig:"SE_POSTGRES_CONN_MAX_LIFETIME"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds broker and topic settings for report publishing.
type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled" envconfig:"SE_KAFKA_ENABLED"`
	Brokers      []string `yaml:"brokers" envconfig:"SE_KAFKA_BROKERS"`
	ReportsTopic string   `yaml:"reportsTopic" envconfig:"SE_KAFKA_REPORTS_TOPIC"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"SE_LOGGING_LEVEL"`
	Format string `yaml:"format" envconfig:"SE_LOGGING_FORMAT"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"SE_METRICS_ENABLED"`
	Port    int  `yaml:"port" envconfig:"SE_METRICS_PORT"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides on top of the defaults, then validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig returns a Config with defaults for a local CACM run.
func defaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			DocsDir:      "data/cacm",
			QueryFile:    "data/cacm_processed.query",
			JudgmentFile: "data/cacm_processed.rel",
		},
		Indexer: IndexerConfig{
			DataDir:  "data/index/cacm",
			FileName: "dd_index.txt",
			Format:   "text",
		},
		Search: SearchConfig{
			Weighting: "atc.atc",
			Limit:     100,
			Workers:   4,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "smarteval",
			User:            "smarteval",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:      []string{"localhost:9092"},
			ReportsTopic: "evaluation-reports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []string

	validFormats := map[string]bool{"text": true, "sqlite": true}
	if !validFormats[c.Indexer.Format] {
		errs = append(errs, fmt.Sprintf("invalid index format: %s (must be text or sqlite)", c.Indexer.Format))
	}
	if c.Indexer.FileName == "" {
		errs = append(errs, "indexer fileName must not be empty")
	}
	if c.Search.Weighting == "" {
		errs = append(errs, "search weighting must not be empty")
	}
	if c.Search.Limit < 0 {
		errs = append(errs, "search limit must not be negative")
	}
	if c.Search.Workers < 1 {
		errs = append(errs, "search workers must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level))
	}
	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Logging.Format))
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, "kafka brokers required when kafka is enabled")
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		errs = append(errs, "metrics port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
