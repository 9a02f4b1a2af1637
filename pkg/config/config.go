// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Analyzer, Segmenter, Lexicon, Cache, Redis, Kafka, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Lexicon   LexiconConfig   `yaml:"lexicon"`
	Cache     CacheConfig     `yaml:"cache"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// AnalyzerConfig bounds extraction requests.
type AnalyzerConfig struct {
	DefaultTopN     int `yaml:"defaultTopN"`
	MaxTopN         int `yaml:"maxTopN"`
	MaxContentBytes int `yaml:"maxContentBytes"`
}

// SegmenterConfig selects the word segmenter. Mode is "dict" or "unicode".
type SegmenterConfig struct {
	Mode      string `yaml:"mode"`
	DictPath  string `yaml:"dictPath"`
	Lowercase bool   `yaml:"lowercase"`
}

// LexiconConfig locates the stop-word list and IDF dictionary. Source is
// "embed", "dir" or "s3".
type LexiconConfig struct {
	Source        string   `yaml:"source"`
	Dir           string   `yaml:"dir"`
	StopWordsName string   `yaml:"stopWordsName"`
	IDFName       string   `yaml:"idfName"`
	S3            S3Config `yaml:"s3"`
}

// S3Config holds the bucket holding lexicon files. Endpoint is optional and
// is meant for S3-compatible stores such as MinIO.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

// CacheConfig controls the extraction result cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	LRUSize int  `yaml:"lruSize"`
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

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	ExtractionJobs    string `yaml:"extractionJobs"`
	ExtractionResults string `yaml:"extractionResults"`
	AnalyticsEvents   string `yaml:"analyticsEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// RateLimitConfig controls the per-client token bucket on the HTTP API.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerWindow int           `yaml:"requestsPerWindow"`
	Window            time.Duration `yaml:"window"`
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
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
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
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration with environment overrides
// applied. Tools that run without a config file start from it.
func Default() *Config {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	return cfg
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Analyzer.DefaultTopN < 0 {
		errs = append(errs, errors.New("analyzer.defaultTopN must not be negative"))
	}
	if c.Analyzer.MaxTopN < 1 {
		errs = append(errs, errors.New("analyzer.maxTopN must be at least 1"))
	}
	if c.Analyzer.DefaultTopN > c.Analyzer.MaxTopN {
		errs = append(errs, errors.New("analyzer.defaultTopN must not exceed analyzer.maxTopN"))
	}
	if c.Analyzer.MaxContentBytes < 1 {
		errs = append(errs, errors.New("analyzer.maxContentBytes must be positive"))
	}
	switch c.Segmenter.Mode {
	case "dict", "unicode":
	default:
		errs = append(errs, fmt.Errorf("segmenter.mode %q is not one of dict, unicode", c.Segmenter.Mode))
	}
	switch c.Lexicon.Source {
	case "embed":
	case "dir":
		if c.Lexicon.Dir == "" {
			errs = append(errs, errors.New("lexicon.dir is required for source dir"))
		}
	case "s3":
		if c.Lexicon.S3.Bucket == "" {
			errs = append(errs, errors.New("lexicon.s3.bucket is required for source s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("lexicon.source %q is not one of embed, dir, s3", c.Lexicon.Source))
	}
	if c.Lexicon.StopWordsName == "" || c.Lexicon.IDFName == "" {
		errs = append(errs, errors.New("lexicon resource names must not be empty"))
	}
	if c.Cache.Enabled && c.Cache.LRUSize < 1 {
		errs = append(errs, errors.New("cache.lruSize must be positive when caching is enabled"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerWindow < 1 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("rateLimit needs a positive requestsPerWindow and window"))
	}
	return errors.Join(errs...)
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8090,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Analyzer: AnalyzerConfig{
			DefaultTopN:     5,
			MaxTopN:         100,
			MaxContentBytes: 64 * 1024,
		},
		Segmenter: SegmenterConfig{
			Mode: "dict",
		},
		Lexicon: LexiconConfig{
			Source:        "embed",
			StopWordsName: "stop_words.txt",
			IDFName:       "idf_dict.txt",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Cache: CacheConfig{
			Enabled: true,
			LRUSize: 10000,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "keywords",
			User:            "keywords",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "keyword-worker-group",
			Topics: KafkaTopics{
				ExtractionJobs:    "keyword-extraction-jobs",
				ExtractionResults: "keyword-extraction-results",
				AnalyticsEvents:   "keyword-analytics-events",
			},
		},
		Redis: RedisConfig{
			Enabled:  true,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerWindow: 600,
			Window:            time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9091,
		},
	}
}

// applyEnvOverrides reads KE_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("KE_ANALYZER_DEFAULT_TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analyzer.DefaultTopN = n
		}
	}
	if v := os.Getenv("KE_ANALYZER_MAX_TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analyzer.MaxTopN = n
		}
	}
	if v := os.Getenv("KE_SEGMENTER_MODE"); v != "" {
		cfg.Segmenter.Mode = v
	}
	if v := os.Getenv("KE_SEGMENTER_DICT_PATH"); v != "" {
		cfg.Segmenter.DictPath = v
	}
	if v := os.Getenv("KE_LEXICON_SOURCE"); v != "" {
		cfg.Lexicon.Source = v
	}
	if v := os.Getenv("KE_LEXICON_DIR"); v != "" {
		cfg.Lexicon.Dir = v
	}
	if v := os.Getenv("KE_LEXICON_S3_BUCKET"); v != "" {
		cfg.Lexicon.S3.Bucket = v
	}
	if v := os.Getenv("KE_LEXICON_S3_ENDPOINT"); v != "" {
		cfg.Lexicon.S3.Endpoint = v
	}
	if v := os.Getenv("KE_LEXICON_S3_ACCESS_KEY"); v != "" {
		cfg.Lexicon.S3.AccessKey = v
	}
	if v := os.Getenv("KE_LEXICON_S3_SECRET_KEY"); v != "" {
		cfg.Lexicon.S3.SecretKey = v
	}
	if v := os.Getenv("KE_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("KE_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("KE_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("KE_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("KE_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("KE_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("KE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KE_REDIS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = enabled
		}
	}
	if v := os.Getenv("KE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("KE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("KE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("KE_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
