package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
)

func newAnalyzeCmd(deps Dependencies) *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run market and risk analysis over a complex RFQ",
		Long:  "Reads a complex RFQ as JSON from --file (or stdin with --file -) and runs\nthe full analysis pipeline: market signals per line, supplier risk, and\nnegotiation suggestions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if file == "-" {
				data, err = os.ReadFile("/dev/stdin")
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("failed to read RFQ file: %w", err)
			}

			var complexRFQ rfq.ComplexRFQ
			if err := json.Unmarshal(data, &complexRFQ); err != nil {
				return fmt.Errorf("failed to parse RFQ JSON: %w", err)
			}

			analysis, err := deps.Negotiator.AnalyzeComplexRFQ(cmd.Context(), &complexRFQ)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), analysis)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "RFQ %s\n", analysis.RFQID)
			fmt.Fprintf(out, "  price band:    %.2f – %.2f (avg %.2f)\n",
				analysis.PriceBand.Min, analysis.PriceBand.Max, analysis.PriceBand.Avg)
			fmt.Fprintf(out, "  supplier risk: %.2f\n", analysis.SupplierRisk.Score)
			for _, factor := range analysis.SupplierRisk.Factors {
				fmt.Fprintf(out, "    risk factor: %s\n", factor)
			}
			fmt.Fprintf(out, "  demand:        %s\n", analysis.Demand.Trend)
			fmt.Fprintf(out, "  success prob:  %.0f%%\n", analysis.SuccessProbability*100)
			if analysis.Degraded {
				fmt.Fprintln(out, "  NOTE: analysis used fallback values for unavailable collaborators")
			}
			for _, s := range analysis.Suggestions {
				fmt.Fprintf(out, "  suggest [%s]: %s\n", s.Rule, s.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the complex RFQ JSON (use - for stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of a summary")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
