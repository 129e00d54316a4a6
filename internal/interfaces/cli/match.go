package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

func newMatchCmd(deps Dependencies) *cobra.Command {
	var (
		buyerID     string
		title       string
		description string
		category    string
		quantity    int
		budget      string
		windowDays  int
		urgency     string
		country     string
		city        string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Rank suppliers against a single-item requirement",
		RunE: func(cmd *cobra.Command, args []string) error {
			money, err := common.ParsePrice(budget)
			if err != nil {
				return fmt.Errorf("invalid --budget: %w", err)
			}

			req := &rfq.Requirement{
				BuyerID:            common.ID(buyerID),
				Title:              title,
				Description:        description,
				Category:           category,
				Quantity:           quantity,
				Budget:             money,
				DeliveryWindowDays: windowDays,
				Deadline:           time.Now().AddDate(0, 0, windowDays),
				DeliveryLocation:   rfq.DeliveryLocation{Country: country, City: city},
				Urgency:            common.UrgencyTier(urgency),
				CreatedAt:          time.Now().UTC(),
			}

			resp, err := deps.Matcher.FindMatches(cmd.Context(), req)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Requirement %s: %d results, %d skipped\n\n",
				resp.RequirementID, len(resp.Results), len(resp.Skips))
			for i, r := range resp.Results {
				fmt.Fprintf(out, "%2d. %-30s %6.1f  %s\n",
					i+1, r.Supplier.Name, r.TotalScore, r.Tier)
				for _, reason := range r.Reasons {
					fmt.Fprintf(out, "      + %s\n", reason)
				}
				for _, concern := range r.Concerns {
					fmt.Fprintf(out, "      - %s\n", concern)
				}
			}
			for _, s := range resp.Skips {
				fmt.Fprintf(out, "skipped %s: %s\n", s.SupplierID, s.Reason)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&buyerID, "buyer", "", "buyer ID")
	f.StringVar(&title, "title", "", "requirement title")
	f.StringVar(&description, "description", "", "free-text description")
	f.StringVar(&category, "category", "", "product category")
	f.IntVar(&quantity, "quantity", 0, "order quantity")
	f.StringVar(&budget, "budget", "", "budget as a price string, e.g. \"$12,000\"")
	f.IntVar(&windowDays, "window-days", 30, "delivery window in days")
	f.StringVar(&urgency, "urgency", "medium", "urgency tier: low|medium|high")
	f.StringVar(&country, "country", "", "delivery country")
	f.StringVar(&city, "city", "", "delivery city")
	f.BoolVar(&asJSON, "json", false, "emit JSON instead of a table")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("quantity")
	_ = cmd.MarkFlagRequired("budget")

	return cmd
}
