package config

import "time"

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "sourcing"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "sourcing-intelligence"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "negotiation-reports"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMaxResults  = 50
	DefaultParallelism = 8

	DefaultWorkerConcurrency = 10

	DefaultLargeOrderThreshold = 50000.0
)

// DefaultFactorWeights is the standard scoring policy.  The nine factor
// weights total 100 so match scores stay on a 0–100 scale.
var DefaultFactorWeights = FactorWeights{
	Category:   25,
	Budget:     20,
	Rating:     15,
	Location:   10,
	Compliance: 10,
	Delivery:   8,
	Quality:    7,
	Capacity:   3,
	LeadTime:   2,
}

// ApplyDefaults fills every zero-value field in cfg with the platform
// default.  Fields already set by the caller are left unchanged so explicit
// configuration always wins.  It must run after unmarshalling and before
// Validate so optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "sourcing"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "migrations"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 5 * time.Minute
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "srciq"
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}

	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.OpenSearch.IndexPrefix == "" {
		cfg.OpenSearch.IndexPrefix = "srciq"
	}
	if cfg.OpenSearch.BulkBatchSize == 0 {
		cfg.OpenSearch.BulkBatchSize = 500
	}

	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	if cfg.MarketData.Timeout == 0 {
		cfg.MarketData.Timeout = 5 * time.Second
	}
	if cfg.MarketData.CacheTTL == 0 {
		cfg.MarketData.CacheTTL = 10 * time.Minute
	}

	if cfg.Matching.Weights == (FactorWeights{}) {
		cfg.Matching.Weights = DefaultFactorWeights
	}
	if cfg.Matching.CapacityBudgetDivisor == 0 {
		cfg.Matching.CapacityBudgetDivisor = 100
	}
	if cfg.Matching.MaxResults == 0 {
		cfg.Matching.MaxResults = DefaultMaxResults
	}
	if cfg.Matching.Parallelism == 0 {
		cfg.Matching.Parallelism = DefaultParallelism
	}
	if cfg.Matching.RetrievalEngine == "" {
		cfg.Matching.RetrievalEngine = "memory"
	}

	if cfg.Analysis.CollaboratorTimeout == 0 {
		cfg.Analysis.CollaboratorTimeout = 5 * time.Second
	}
	if cfg.Analysis.FallbackResponseTime == 0 {
		cfg.Analysis.FallbackResponseTime = 24 * time.Hour
	}
	if cfg.Analysis.MaxParallel == 0 {
		cfg.Analysis.MaxParallel = DefaultParallelism
	}
	if cfg.Analysis.LargeOrderThreshold == 0 {
		cfg.Analysis.LargeOrderThreshold = DefaultLargeOrderThreshold
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = 2 * time.Second
	}
	if cfg.Worker.CommitInterval == 0 {
		cfg.Worker.CommitInterval = time.Second
	}

	if cfg.RateLimit.RequestsPerWindow == 0 {
		cfg.RateLimit.RequestsPerWindow = 120
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = time.Minute
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
