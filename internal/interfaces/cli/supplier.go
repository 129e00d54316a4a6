package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

func newSupplierCmd(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "supplier",
		Short: "Inspect and maintain the supplier directory",
	}
	cmd.AddCommand(
		newSupplierListCmd(deps),
		newSupplierGetCmd(deps),
		newSupplierUpsertCmd(deps),
		newSupplierDeleteCmd(deps),
	)
	return cmd
}

func newSupplierListCmd(deps Dependencies) *cobra.Command {
	var (
		category  string
		country   string
		minRating float64
		verified  bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List suppliers in the directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			suppliers, err := deps.Directory.ListSuppliers(cmd.Context(), supplier.ListFilter{
				Category:     category,
				Country:      country,
				MinRating:    minRating,
				VerifiedOnly: verified,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), suppliers)
			}
			out := cmd.OutOrStdout()
			for _, s := range suppliers {
				fmt.Fprintf(out, "%-12s %-30s %.1f  %s\n", s.ID, s.Name, s.Rating, s.Verification)
			}
			fmt.Fprintf(out, "%d suppliers\n", len(suppliers))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&category, "category", "", "filter by category")
	f.StringVar(&country, "country", "", "filter by country")
	f.Float64Var(&minRating, "min-rating", 0, "minimum rating")
	f.BoolVar(&verified, "verified-only", false, "only verified or premium suppliers")
	f.BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func newSupplierGetCmd(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "get <supplier-id>",
		Short: "Show one supplier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sup, err := deps.Directory.GetSupplier(cmd.Context(), common.ID(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sup)
		},
	}
}

func newSupplierUpsertCmd(deps Dependencies) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Create or update a supplier from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read supplier file: %w", err)
			}
			var sup supplier.Supplier
			if err := json.Unmarshal(data, &sup); err != nil {
				return fmt.Errorf("failed to parse supplier JSON: %w", err)
			}
			if err := deps.Writer.UpsertSupplier(cmd.Context(), &sup); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "supplier %s upserted\n", sup.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the supplier JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSupplierDeleteCmd(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <supplier-id>",
		Short: "Remove a supplier from the directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.Writer.DeleteSupplier(cmd.Context(), common.ID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "supplier %s deleted\n", args[0])
			return nil
		},
	}
}
