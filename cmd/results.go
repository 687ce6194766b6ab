package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/basketwise/compare-cli/internal/model"
	"github.com/basketwise/compare-cli/internal/pipeline"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the ranked comparison from the last run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("local"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		groups, err := pipeline.Rank(ctx, st, cfg.Owner)
		if err != nil {
			return err
		}
		formatComparison(os.Stdout, groups)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

// inr renders a price with Indian digit grouping, e.g. ₹1,24,950.00.
var inr = message.NewPrinter(language.MustParse("en-IN"))

func formatPrice(price float64) string {
	return inr.Sprintf("₹%v", number.Decimal(price,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// formatComparison writes the ranked comparison groups to w.
func formatComparison(out io.Writer, groups []model.ComparisonGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(os.Stderr, "No results. Run a comparison first.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, group := range groups {
		_, _ = fmt.Fprintf(w, "%s\n", group.GroceryItem)
		for _, rec := range group.Ranked {
			marker := " "
			if rec.BestPrice {
				marker = "*"
			}
			note := ""
			if !rec.IsAvailable {
				note = "out of stock"
			} else if rec.SpecialOffer != "" {
				note = rec.SpecialOffer
			}
			name := rec.ProductName
			if rec.UnitSize != "" {
				name = fmt.Sprintf("%s (%s)", name, rec.UnitSize)
			}
			_, _ = fmt.Fprintf(w, "  %s %s\t%s\t%s\t%s\n",
				marker, rec.PlatformID, name, formatPrice(rec.Price), note)
		}
	}
	_ = w.Flush()
}
