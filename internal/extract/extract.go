// Package extract translates (platform, item, pincode) triples into calls
// against the structured-extraction service and normalizes whatever shape
// comes back into canonical product records. All schema drift from the
// extraction service is isolated here.
package extract

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/basketwise/compare-cli/internal/model"
	"github.com/basketwise/compare-cli/pkg/firecrawl"
)

// maxRecordsPerCall caps how many products one (platform, item) extraction
// may yield.
const maxRecordsPerCall = 3

// Extractor fetches product records for one grocery item on one platform.
// Returned records carry no owner or platform id; the orchestrator attaches
// those before persisting.
type Extractor interface {
	Extract(ctx context.Context, platform model.Platform, item, pincode string) ([]model.ProductRecord, error)
}

// FirecrawlExtractor implements Extractor on top of the Firecrawl extract
// API. It does not retry; retry policy belongs to the caller.
type FirecrawlExtractor struct {
	client   firecrawl.Client
	pollOpts []firecrawl.PollOption
}

// NewFirecrawlExtractor creates a FirecrawlExtractor.
func NewFirecrawlExtractor(client firecrawl.Client, pollOpts ...firecrawl.PollOption) *FirecrawlExtractor {
	return &FirecrawlExtractor{client: client, pollOpts: pollOpts}
}

// productSchema describes exactly the fields the pipeline consumes. The
// extraction service treats it as authoritative.
var productSchema = &firecrawl.Schema{
	Type: "array",
	Items: &firecrawl.Schema{
		Type: "object",
		Properties: map[string]firecrawl.SchemaProperty{
			"product_name":  {Type: "string", Description: "Display name of the product"},
			"price":         {Type: "number", Description: "Price as a number, no currency symbol"},
			"out_of_stock":  {Type: "boolean", Description: "True when the product cannot be ordered"},
			"unit_size":     {Type: "string", Description: "Pack size or weight, if shown"},
			"special_offer": {Type: "string", Description: "Promotional offer text, if any"},
		},
		Required: []string{"product_name", "price"},
	},
}

// Extract resolves the platform's search target for item and asks the
// extraction service for the top products, localized to the given pincode
// via a simulated location cookie.
func (e *FirecrawlExtractor) Extract(ctx context.Context, platform model.Platform, item, pincode string) ([]model.ProductRecord, error) {
	target, ok := platform.SearchTarget(item)
	if !ok {
		return nil, eris.Wrapf(model.ErrUnsupportedPlatform, "extract: %s", platform.Name)
	}

	prompt := fmt.Sprintf(
		"Search results for %q on %s. Extract the top %d products with: "+
			"product name, price as a number, whether the product is out of stock (true/false), "+
			"unit size or weight if shown, and any special offer text.",
		item, platform.Name, maxRecordsPerCall,
	)

	raw, err := firecrawl.ExtractAndWait(ctx, e.client, firecrawl.ExtractRequest{
		URLs:    []string{target},
		Prompt:  prompt,
		Schema:  productSchema,
		Headers: map[string]string{"Cookie": "location=" + pincode},
	}, e.pollOpts...)
	if err != nil {
		// Both the taxonomy sentinel and the cause stay in the chain so the
		// caller can classify transience.
		return nil, fmt.Errorf("extract: %s/%s: %w: %w", platform.ID, item, model.ErrExtractionFailed, err)
	}

	records, dropped := Normalize(raw)
	if dropped > 0 {
		zap.L().Debug("extract: dropped unparseable records",
			zap.String("platform", platform.ID),
			zap.String("item", item),
			zap.Int("dropped", dropped),
		)
	}
	if len(records) > maxRecordsPerCall {
		records = records[:maxRecordsPerCall]
	}
	for i := range records {
		records[i].GroceryItem = item
	}
	return records, nil
}
