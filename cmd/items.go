package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/basketwise/compare-cli/internal/model"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Manage the grocery list",
	Long:  "Commands for adding, listing, and removing grocery list items.",
}

// -- items add --

var itemsAddCmd = &cobra.Command{
	Use:   "add <name>...",
	Short: "Add items to the grocery list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("local"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		for _, name := range args {
			item, err := st.AddItem(ctx, cfg.Owner, name)
			if err != nil {
				return eris.Wrapf(err, "add item %q", name)
			}
			fmt.Printf("added %s (%s)\n", item.Name, truncateID(item.ID))
		}
		return nil
	},
}

// -- items list --

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List grocery items",
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

		items, err := st.ListItems(ctx, cfg.Owner)
		if err != nil {
			return eris.Wrap(err, "items list")
		}

		if len(items) == 0 {
			fmt.Fprintln(os.Stderr, "Grocery list is empty.")
			return nil
		}

		formatItemsList(os.Stdout, items)
		return nil
	},
}

// -- items rm --

var itemsRmCmd = &cobra.Command{
	Use:   "rm <item-id>",
	Short: "Remove an item from the grocery list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("local"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteItem(ctx, cfg.Owner, args[0]); err != nil {
			return eris.Wrap(err, "items rm")
		}
		fmt.Printf("removed %s\n", truncateID(args[0]))
		return nil
	},
}

func init() {
	itemsCmd.AddCommand(itemsAddCmd)
	itemsCmd.AddCommand(itemsListCmd)
	itemsCmd.AddCommand(itemsRmCmd)
	rootCmd.AddCommand(itemsCmd)
}

// formatItemsList writes a tabular list of grocery items to w.
func formatItemsList(out io.Writer, items []model.GroceryItem) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tADDED")
	_, _ = fmt.Fprintln(w, "--\t----\t-----")
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n",
			truncateID(item.ID),
			item.Name,
			item.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
