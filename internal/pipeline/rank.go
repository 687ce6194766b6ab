package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/basketwise/compare-cli/internal/model"
	"github.com/basketwise/compare-cli/internal/store"
)

// maxPerGroup caps how many records a comparison group shows per item.
const maxPerGroup = 3

// Rank reads the owner's persisted records and derives comparison groups:
// one group per grocery item in first-seen store order, each holding the up
// to three cheapest records ascending by price, with the cheapest flagged
// best price. Unavailable records keep their rank; display layers mark them
// out of stock. A pure read — no network calls, no mutation. No records is
// a valid empty state, not an error.
func Rank(ctx context.Context, st store.Store, owner string) ([]model.ComparisonGroup, error) {
	// The store returns rows price-ascending with stable ties, so taking
	// the first three per item yields the three cheapest.
	records, err := st.ListResults(ctx, owner)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: rank")
	}

	var groups []model.ComparisonGroup
	index := make(map[string]int)

	for _, rec := range records {
		i, seen := index[rec.GroceryItem]
		if !seen {
			i = len(groups)
			index[rec.GroceryItem] = i
			groups = append(groups, model.ComparisonGroup{GroceryItem: rec.GroceryItem})
		}
		if len(groups[i].Ranked) >= maxPerGroup {
			continue
		}
		groups[i].Ranked = append(groups[i].Ranked, model.RankedRecord{
			ProductRecord: rec,
			BestPrice:     len(groups[i].Ranked) == 0,
		})
	}
	return groups, nil
}
