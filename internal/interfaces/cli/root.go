// Package cli implements the sourcectl operator command tree: ad-hoc
// matching and analysis runs, report retrieval, supplier upserts, and
// schema migrations.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/trellisource/sourcing-intelligence/internal/analysis/strategy"
	"github.com/trellisource/sourcing-intelligence/internal/application/matching"
	"github.com/trellisource/sourcing-intelligence/internal/application/negotiation"
	"github.com/trellisource/sourcing-intelligence/internal/config"
	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// Matcher is the matching operation the CLI invokes.
type Matcher interface {
	FindMatches(ctx context.Context, req *rfq.Requirement) (*matching.MatchResponse, error)
}

// Negotiator covers the analysis and report operations.
type Negotiator interface {
	AnalyzeComplexRFQ(ctx context.Context, c *rfq.ComplexRFQ) (strategy.RFQAnalysis, error)
	GenerateNegotiationReport(ctx context.Context, rfqID common.ID) (*negotiation.Report, error)
}

// Dependencies carries the wired services into the command tree.  Main
// constructs them once and hands them over.
type Dependencies struct {
	Matcher    Matcher
	Negotiator Negotiator
	Directory  supplier.Directory
	Writer     supplier.Writer
	Config     *config.Config
	Logger     logging.Logger
}

// NewRootCommand builds the sourcectl command tree.
func NewRootCommand(deps Dependencies) *cobra.Command {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}

	root := &cobra.Command{
		Use:           "sourcectl",
		Short:         "Operator CLI for the sourcing-intelligence platform",
		Long:          "sourcectl runs supplier matching, complex-RFQ analysis, and negotiation\nreport generation against the configured catalog, and manages the schema.",
		Version:       fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMatchCmd(deps),
		newAnalyzeCmd(deps),
		newReportCmd(deps),
		newSupplierCmd(deps),
		newMigrateCmd(deps),
	)
	return root
}

// printJSON writes v as indented JSON to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
