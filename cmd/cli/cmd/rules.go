package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"siding-takeoff/core/formula"
	"siding-takeoff/core/measurement"
	"siding-takeoff/core/rules"
	"siding-takeoff/internal/config"
)

// rulesCmd lists the active ruleset
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active auto-scope rules",
	Long: `List the active ruleset and where it was loaded from.

Each formula is checked against the restricted formula grammar and any
variable it references that is not a known measurement is reported.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Get()

	b := openBackends(ctx, cfg)
	defer b.Close()

	repo := rules.NewRepository(b.rules, rules.WithTTL(cfg.RulesTTL()))
	rs, origin := repo.GetRules(ctx)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d active rules (%s)\n\n", len(rs), origin)
	for _, r := range rs {
		scope := "project"
		if r.Scoped() {
			scope = strings.Join(r.Manufacturers, ",")
		}
		fmt.Fprintf(out, "%-28s %-20s %-10s %s\n", r.ID, r.SKU, scope, r.Trigger)
		fmt.Fprintf(out, "    %s -> %s\n", r.QuantityFormula, r.Unit)
		if problem := checkFormula(r.QuantityFormula); problem != "" {
			fmt.Fprintf(out, "    ! %s\n", problem)
		}
	}
	return nil
}

// checkFormula reports a parse error or references to unknown measurement names
func checkFormula(expr string) string {
	names, err := formula.Validate(expr)
	if err != nil {
		return err.Error()
	}
	var unknown []string
	for _, n := range names {
		if _, ok := measurement.Resolve(n); !ok {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return "unknown measurements: " + strings.Join(unknown, ", ")
	}
	return ""
}
