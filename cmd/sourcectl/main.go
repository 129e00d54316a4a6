// sourcectl is the operator CLI for the sourcing-intelligence platform.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/trellisource/sourcing-intelligence/internal/analysis/market"
	"github.com/trellisource/sourcing-intelligence/internal/analysis/risk"
	"github.com/trellisource/sourcing-intelligence/internal/analysis/strategy"
	appmatching "github.com/trellisource/sourcing-intelligence/internal/application/matching"
	"github.com/trellisource/sourcing-intelligence/internal/application/negotiation"
	"github.com/trellisource/sourcing-intelligence/internal/config"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/database/postgres"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/marketdata"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/internal/interfaces/cli"
	"github.com/trellisource/sourcing-intelligence/internal/matching/lexindex"
	"github.com/trellisource/sourcing-intelligence/internal/matching/ranking"
	"github.com/trellisource/sourcing-intelligence/internal/matching/scoring"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	// The CLI logs to stderr so command output on stdout stays parseable.
	logCfg := cfg.Log
	logCfg.OutputPaths = []string{"stderr"}
	log, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(log)

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.Database, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	supplierRepo := repositories.NewSupplierRepo(pool.Pool(), log)
	rfqRepo := repositories.NewRFQRepo(pool.Pool(), log)

	retriever := lexindex.NewRetriever(supplierRepo, lexindex.DefaultFieldWeights, 0, log)

	scorer := scoring.NewScorer(cfg.Matching)
	ranker := ranking.NewRanker(scorer, cfg.Matching.Parallelism, log)
	matcher := appmatching.NewService(supplierRepo, retriever, rfqRepo, ranker, nil,
		cfg.Matching.MaxResults, log)

	marketClient, err := marketdata.NewClient(cfg.MarketData, nil, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create market-data client: %v\n", err)
		os.Exit(1)
	}
	analyzer := market.NewAnalyzer(marketClient, cfg.Analysis.CollaboratorTimeout, log)
	riskAgg := risk.NewAggregator(supplierRepo, cfg.Analysis.FallbackResponseTime,
		cfg.Analysis.CollaboratorTimeout, log)
	strategist := strategy.NewStrategist(cfg.Analysis.LargeOrderThreshold, log)
	negotiator := negotiation.NewService(rfqRepo, supplierRepo, analyzer, riskAgg,
		strategist, rfqRepo, nil, nil, cfg.Analysis.MaxParallel, log)

	root := cli.NewRootCommand(cli.Dependencies{
		Matcher:    matcher,
		Negotiator: negotiator,
		Directory:  supplierRepo,
		Writer:     supplierRepo,
		Config:     cfg,
		Logger:     log,
	})

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
