package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"siding-takeoff/core/lineitem"
	"siding-takeoff/core/pricing"
	"siding-takeoff/internal/config"
)

// pricingCmd prints the pricing catalog with burdened labor rates
var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Show the pricing catalog",
	Long: `Show the pricing catalog with material cost and burdened labor rate per unit.

Labor rates use the item's total labor cost when present, otherwise the
base labor cost inflated by the configured labor burden.`,
	Args: cobra.NoArgs,
	RunE: runPricing,
}

func runPricing(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Get()

	b := openBackends(ctx, cfg)
	defer b.Close()

	out := cmd.OutOrStdout()
	if b.pricing == nil {
		fmt.Fprintln(out, "No pricing catalog configured.")
		return nil
	}
	catalog, err := b.pricing.Catalog(ctx)
	if err != nil {
		return err
	}

	burden := pricing.NewLaborBurden(cfg.Pricing.LaborBurden)
	fmt.Fprintf(out, "%d items, labor burden %s%%\n\n", catalog.Len(), burden.Percent().StringFixed(2))
	for _, item := range catalog.Items() {
		fmt.Fprintf(out, "%-24s %-20s %-5s material %10s  labor %10s  %s\n",
			item.Key(), item.Manufacturer, item.Unit,
			item.MaterialCost.StringFixed(lineitem.MoneyPlaces),
			item.LaborRate(burden).StringFixed(lineitem.MoneyPlaces),
			item.Name)
	}
	return nil
}
