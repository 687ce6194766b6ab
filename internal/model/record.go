package model

import "time"

// ProductRecord is the canonical, schema-stable shape of one scraped
// product entry. Records are immutable once written; a re-run replaces the
// owner's entire prior batch.
type ProductRecord struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	PlatformID   string    `json:"platform_id"`
	GroceryItem  string    `json:"grocery_item"`
	ProductName  string    `json:"product_name"`
	Price        float64   `json:"price"` // platform-local currency, never negative
	UnitSize     string    `json:"unit_size,omitempty"`
	SpecialOffer string    `json:"special_offer,omitempty"`
	IsAvailable  bool      `json:"is_available"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// RankedRecord is a ProductRecord annotated for display.
type RankedRecord struct {
	ProductRecord
	BestPrice bool `json:"best_price"`
}

// ComparisonGroup holds the cheapest records for one grocery item,
// ascending by price. Derived fresh on each read, never persisted.
type ComparisonGroup struct {
	GroceryItem string         `json:"grocery_item"`
	Ranked      []RankedRecord `json:"ranked"`
}

// PlatformOutcome summarizes one platform's contribution to a run.
// Records counts successfully stored rows; Err holds the last error kind
// encountered for the platform, empty when every item succeeded.
type PlatformOutcome struct {
	PlatformID string `json:"platform_id"`
	Records    int    `json:"records"`
	Failures   int    `json:"failures"`
	Err        string `json:"error,omitempty"`
}

// RunSummary is the orchestrator's per-platform report for one run.
type RunSummary struct {
	SelectionID string                     `json:"selection_id"`
	Owner       string                     `json:"owner"`
	PerPlatform map[string]PlatformOutcome `json:"per_platform"`
}

// Records returns the total number of rows the run stored.
func (s *RunSummary) Records() int {
	var n int
	for _, o := range s.PerPlatform {
		n += o.Records
	}
	return n
}

// Failed reports whether any platform recorded an error.
func (s *RunSummary) Failed() bool {
	for _, o := range s.PerPlatform {
		if o.Err != "" {
			return true
		}
	}
	return false
}
