// Package config defines all configuration structures for the
// sourcing-intelligence platform.  No I/O or parsing logic lives here — only
// plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Kafka producer/consumer parameters.
type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	GroupID         string   `mapstructure:"group_id"`
	AutoOffsetReset string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries int      `mapstructure:"producer_retries"`
	BatchSize       int      `mapstructure:"batch_size"`
}

// OpenSearchConfig holds OpenSearch cluster connection parameters.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
	BulkBatchSize      int      `mapstructure:"bulk_batch_size"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// MarketDataConfig holds settings for the external market-data service
// adapter.
type MarketDataConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// MatchingConfig holds the scoring policy of the factor scorer and match
// ranker.  Every weight and threshold is named configuration so policy can
// change without touching the algorithms.
type MatchingConfig struct {
	Weights FactorWeights `mapstructure:"weights"`

	// CapacityBudgetDivisor derives the required monthly capacity from the
	// budget: required = budget / divisor.
	CapacityBudgetDivisor float64 `mapstructure:"capacity_budget_divisor"`

	// MaxResults caps the ranked list returned by FindMatches.
	MaxResults int `mapstructure:"max_results"`

	// Parallelism bounds the number of suppliers scored concurrently.
	Parallelism int `mapstructure:"parallelism"`

	// RetrievalEngine selects the candidate-retrieval backend: "memory"
	// (in-process lexical index) or "opensearch" for large catalogs.
	RetrievalEngine string `mapstructure:"retrieval_engine"`
}

// FactorWeights are the maximum points each match factor contributes.
// They must total exactly 100.
type FactorWeights struct {
	Category   float64 `mapstructure:"category"`
	Budget     float64 `mapstructure:"budget"`
	Rating     float64 `mapstructure:"rating"`
	Location   float64 `mapstructure:"location"`
	Compliance float64 `mapstructure:"compliance"`
	Delivery   float64 `mapstructure:"delivery"`
	Quality    float64 `mapstructure:"quality"`
	Capacity   float64 `mapstructure:"capacity"`
	LeadTime   float64 `mapstructure:"lead_time"`
}

// Total returns the sum of all weights.
func (w FactorWeights) Total() float64 {
	return w.Category + w.Budget + w.Rating + w.Location + w.Compliance +
		w.Delivery + w.Quality + w.Capacity + w.LeadTime
}

// AnalysisConfig holds settings for the negotiation-analysis pipeline.
type AnalysisConfig struct {
	// CollaboratorTimeout bounds each market-data / history call during
	// fan-out.  On expiry the analysis substitutes documented fallbacks.
	CollaboratorTimeout time.Duration `mapstructure:"collaborator_timeout"`

	// FallbackResponseTime is assumed when a supplier has no history.
	FallbackResponseTime time.Duration `mapstructure:"fallback_response_time"`

	// MaxParallel bounds concurrent line-item and supplier-risk fan-out.
	MaxParallel int `mapstructure:"max_parallel"`

	// LargeOrderThreshold is the total budget above which bulk-discount
	// negotiation is suggested.
	LargeOrderThreshold float64 `mapstructure:"large_order_threshold"`
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	CommitInterval time.Duration `mapstructure:"commit_interval"`
}

// RateLimitConfig holds HTTP-surface rate-limit parameters.
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerWindow int           `mapstructure:"requests_per_window"`
	Window            time.Duration `mapstructure:"window"`
}

// Config is the root configuration structure for the platform.  Every
// infrastructure component and application service reads its settings from
// the relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	MarketData MarketDataConfig `mapstructure:"market_data"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Log        logging.Config   `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.  It
// returns the first error encountered; callers treat any error as fatal and
// refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	// Match quality depends on the weights totalling exactly 100 so that
	// match scores stay on a 0–100 scale.
	if total := c.Matching.Weights.Total(); total != 100 {
		return fmt.Errorf("config: matching.weights must total 100, got %g", total)
	}
	if c.Matching.CapacityBudgetDivisor <= 0 {
		return fmt.Errorf("config: matching.capacity_budget_divisor must be > 0, got %g", c.Matching.CapacityBudgetDivisor)
	}
	if c.Matching.Parallelism < 1 {
		return fmt.Errorf("config: matching.parallelism must be ≥ 1, got %d", c.Matching.Parallelism)
	}
	switch c.Matching.RetrievalEngine {
	case "memory", "opensearch":
	default:
		return fmt.Errorf("config: matching.retrieval_engine %q is invalid; expected memory|opensearch", c.Matching.RetrievalEngine)
	}

	if c.Analysis.CollaboratorTimeout <= 0 {
		return fmt.Errorf("config: analysis.collaborator_timeout must be > 0, got %s", c.Analysis.CollaboratorTimeout)
	}
	if c.Analysis.MaxParallel < 1 {
		return fmt.Errorf("config: analysis.max_parallel must be ≥ 1, got %d", c.Analysis.MaxParallel)
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
