package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

func newReportCmd(deps Dependencies) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report <rfq-id>",
		Short: "Generate the negotiation report for a stored RFQ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := deps.Negotiator.GenerateNegotiationReport(cmd.Context(), common.ID(args[0]))
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Negotiation report %s for RFQ %s\n", report.ID, report.RFQID)
			fmt.Fprintf(out, "generated at %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04 MST"))
			fmt.Fprintln(out, "Recommendations:")
			for _, r := range report.Recommendations {
				fmt.Fprintf(out, "  * %s\n", r)
			}
			fmt.Fprintln(out, "\nNext steps:")
			for _, s := range report.NextSteps {
				fmt.Fprintf(out, "  - %s\n", s)
			}
			fmt.Fprintf(out, "\nsuccess probability: %.0f%%\n", report.SuccessProbability*100)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of a summary")
	return cmd
}
