// API server entry point for the sourcing-intelligence platform.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/trellisource/sourcing-intelligence/internal/analysis/market"
	"github.com/trellisource/sourcing-intelligence/internal/analysis/risk"
	"github.com/trellisource/sourcing-intelligence/internal/analysis/strategy"
	appmatching "github.com/trellisource/sourcing-intelligence/internal/application/matching"
	"github.com/trellisource/sourcing-intelligence/internal/application/negotiation"
	"github.com/trellisource/sourcing-intelligence/internal/config"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/database/postgres"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/database/redis"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/marketdata"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/messaging/kafka"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/search/opensearch"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/storage/minio"
	httpiface "github.com/trellisource/sourcing-intelligence/internal/interfaces/http"
	"github.com/trellisource/sourcing-intelligence/internal/interfaces/http/handlers"
	"github.com/trellisource/sourcing-intelligence/internal/matching/lexindex"
	"github.com/trellisource/sourcing-intelligence/internal/matching/ranking"
	"github.com/trellisource/sourcing-intelligence/internal/matching/scoring"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(log)
	log.Info("starting apiserver", logging.Int("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence.
	pool, err := postgres.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", logging.Err(err))
	}
	defer pool.Close()
	supplierRepo := repositories.NewSupplierRepo(pool.Pool(), log)
	rfqRepo := repositories.NewRFQRepo(pool.Pool(), log)

	// Cache and rate limiting.
	redisClient, err := redis.NewClient(cfg.Redis, log)
	if err != nil {
		log.Fatal("failed to connect to redis", logging.Err(err))
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, log)

	var limiter *redis.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = redis.NewRateLimiter(redisClient, cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window, log)
	}

	// Events.
	producer, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Fatal("failed to create kafka producer", logging.Err(err))
	}
	defer producer.Close()

	// Candidate retrieval: in-process index by default, OpenSearch for
	// large catalogs.
	var retriever appmatching.CandidateRetriever
	healthDeps := map[string]handlers.Pinger{
		"postgres": pingerFunc(pool.HealthCheck),
		"redis":    pingerFunc(redisClient.Ping),
	}
	if cfg.Matching.RetrievalEngine == "opensearch" {
		osClient, err := opensearch.NewClient(cfg.OpenSearch, log)
		if err != nil {
			log.Fatal("failed to connect to opensearch", logging.Err(err))
		}
		defer osClient.Close()
		retriever = opensearch.NewSearcher(osClient, 0, log)
		healthDeps["opensearch"] = pingerFunc(osClient.Ping)
	} else {
		retriever = lexindex.NewRetriever(supplierRepo, lexindex.DefaultFieldWeights, 0, log)
	}

	// Report archive.
	minioClient, err := minio.NewClient(cfg.MinIO, log)
	if err != nil {
		log.Fatal("failed to connect to minio", logging.Err(err))
	}
	defer minioClient.Close()
	archive := minio.NewReportArchive(minioClient, log)

	// Market data.
	marketClient, err := marketdata.NewClient(cfg.MarketData, cache, log)
	if err != nil {
		log.Fatal("failed to create market-data client", logging.Err(err))
	}

	// Metrics.
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "srciq",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, log)
	if err != nil {
		log.Fatal("failed to create metrics collector", logging.Err(err))
	}
	appMetrics := prometheus.NewAppMetrics(collector)

	// Application services.
	scorer := scoring.NewScorer(cfg.Matching)
	ranker := ranking.NewRanker(scorer, cfg.Matching.Parallelism, log)
	matchSvc := appmatching.NewService(supplierRepo, retriever, rfqRepo, ranker, producer,
		cfg.Matching.MaxResults, log)

	analyzer := market.NewAnalyzer(marketClient, cfg.Analysis.CollaboratorTimeout, log)
	riskAgg := risk.NewAggregator(supplierRepo, cfg.Analysis.FallbackResponseTime,
		cfg.Analysis.CollaboratorTimeout, log)
	strategist := strategy.NewStrategist(cfg.Analysis.LargeOrderThreshold, log)
	negotiationSvc := negotiation.NewService(rfqRepo, supplierRepo, analyzer, riskAgg,
		strategist, rfqRepo, archive, producer, cfg.Analysis.MaxParallel, log)

	// HTTP surface.
	routerCfg := httpiface.RouterConfig{
		MatchHandler:    handlers.NewMatchHandler(matchSvc, log).WithMetrics(appMetrics, cfg.Matching.RetrievalEngine),
		RFQHandler:      handlers.NewRFQHandler(negotiationSvc, log).WithMetrics(appMetrics),
		SupplierHandler: handlers.NewSupplierHandler(supplierRepo, supplierRepo, producer, log),
		HealthHandler:   handlers.NewHealthHandler(healthDeps, log),
		MetricsHandler:  collector.Handler(),
		Metrics:         appMetrics,
		Mode:            cfg.Server.Mode,
		Logger:          log,
	}
	if limiter != nil {
		routerCfg.RateLimiter = limiter
	}

	server := httpiface.NewServer(cfg.Server, httpiface.NewRouter(routerCfg), log)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("http server failed", logging.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	if err := server.Stop(context.Background()); err != nil {
		log.Error("http server shutdown failed", logging.Err(err))
	}
	log.Info("apiserver stopped")
}
