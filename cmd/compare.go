package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/basketwise/compare-cli/internal/extract"
	"github.com/basketwise/compare-cli/internal/model"
	"github.com/basketwise/compare-cli/internal/pipeline"
	"github.com/basketwise/compare-cli/internal/resilience"
	"github.com/basketwise/compare-cli/internal/selection"
	"github.com/basketwise/compare-cli/pkg/firecrawl"
)

var (
	comparePincode   string
	comparePlatforms []string
	compareItems     []string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Scrape the selected platforms and rank prices for the grocery list",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("compare"); err != nil {
			return err
		}

		registry, err := model.LoadPlatformRegistry()
		if err != nil {
			return err
		}
		if err := selection.Validate(comparePincode, comparePlatforms, registry); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		// Snapshot the grocery list up front; edits made while the run is in
		// flight do not affect it.
		items := compareItems
		if len(items) == 0 {
			list, err := st.ListItems(ctx, cfg.Owner)
			if err != nil {
				return eris.Wrap(err, "load grocery list")
			}
			for _, item := range list {
				items = append(items, item.Name)
			}
		}
		if len(items) == 0 {
			return model.ErrNoItems
		}

		runner := pipeline.NewRunner(st, newExtractor(), registry,
			pipeline.WithCallTimeout(time.Duration(cfg.Extract.CallTimeoutSecs)*time.Second),
			pipeline.WithRetry(retryConfig()),
			pipeline.WithConcurrency(cfg.Run.MaxConcurrentPlatforms),
		)

		sel := &model.SelectionRequest{
			Owner:       cfg.Owner,
			Pincode:     comparePincode,
			PlatformIDs: comparePlatforms,
		}

		summary, err := runner.Run(ctx, sel, items)
		if err != nil {
			return eris.Wrap(err, "comparison run")
		}

		formatRunSummary(os.Stdout, summary)

		groups, err := pipeline.Rank(ctx, st, cfg.Owner)
		if err != nil {
			return err
		}
		fmt.Println()
		formatComparison(os.Stdout, groups)
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&comparePincode, "pincode", "", "6-digit delivery pincode (required)")
	compareCmd.Flags().StringSliceVar(&comparePlatforms, "platform", nil, "platform id to compare, repeatable (max 4)")
	compareCmd.Flags().StringSliceVar(&compareItems, "item", nil, "compare these items instead of the stored grocery list")
	_ = compareCmd.MarkFlagRequired("pincode")
	_ = compareCmd.MarkFlagRequired("platform")
	rootCmd.AddCommand(compareCmd)
}

// newExtractor builds the Firecrawl-backed extractor from config.
func newExtractor() extract.Extractor {
	client := firecrawl.NewClient(cfg.Firecrawl.Key,
		firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL),
		firecrawl.WithRateLimit(cfg.Firecrawl.RatePerSecond),
	)
	return extract.NewFirecrawlExtractor(client)
}

// retryConfig derives the extraction retry policy from config.
func retryConfig() resilience.RetryConfig {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Extract.MaxAttempts
	return retry
}

// formatRunSummary writes the per-platform outcome table to w.
func formatRunSummary(out io.Writer, summary *model.RunSummary) {
	ids := make([]string, 0, len(summary.PerPlatform))
	for id := range summary.PerPlatform {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PLATFORM\tRECORDS\tFAILURES\tERROR")
	_, _ = fmt.Fprintln(w, "--------\t-------\t--------\t-----")
	for _, id := range ids {
		o := summary.PerPlatform[id]
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", id, o.Records, o.Failures, o.Err)
	}
	_ = w.Flush()

	if summary.Failed() {
		zap.L().Warn("run finished with partial failures",
			zap.String("selection", summary.SelectionID),
			zap.Int("records", summary.Records()),
		)
	}
}
