package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/basketwise/compare-cli/internal/model"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List the supported quick-commerce platforms",
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry, err := model.LoadPlatformRegistry()
		if err != nil {
			return err
		}
		formatPlatforms(os.Stdout, registry.Platforms)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}

// formatPlatforms writes a tabular platform listing to w.
func formatPlatforms(out io.Writer, platforms []model.Platform) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSCRAPEABLE")
	_, _ = fmt.Fprintln(w, "--\t----\t----------")
	for _, p := range platforms {
		scrapeable := "yes"
		if _, ok := p.SearchTarget("probe"); !ok {
			scrapeable = "no"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, scrapeable)
	}
	_ = w.Flush()
}
